package view

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageData_DropsExpiredNotifications(t *testing.T) {
	now := time.Now()
	notes := []Notification{
		{ID: "old", Message: "gone", Severity: SeverityInfo, ExpiresAt: now.Add(-time.Millisecond)},
		{ID: "new", Message: "still here", Severity: SeveritySuccess, ExpiresAt: now.Add(3 * time.Second)},
	}

	data := NewPageData("Console", nil, nil, nil, notes, now)
	require.Len(t, data.Notifications, 1)
	assert.Equal(t, "new", data.Notifications[0].ID)
	assert.Equal(t, int64(3000), data.Notifications[0].RemainingMS)
}

func TestPageData_ButtonReflectsBusyState(t *testing.T) {
	data := NewPageData("Console", nil, nil, map[string]bool{ControlCreate: true}, nil, time.Now())

	assert.Equal(t, Button{Label: BusyLabel, Disabled: true}, data.Button(ControlCreate))
	assert.Equal(t, Button{Label: "Update patient"}, data.Button(ControlUpdate))
}

func TestPageTemplate_RendersContainersAndForms(t *testing.T) {
	r := newTestRenderer(t)
	list, err := r.RenderList(nil)
	require.NoError(t, err)

	forms := map[string]map[string]string{
		FormUpdate: {FieldUpdateID: "5", FieldUpdateName: `Ana "la" <b>`, FieldUpdateEmail: "a@x.com"},
	}
	now := time.Now()
	data := NewPageData("Console", map[string]template.HTML{ContainerPatients: list}, forms,
		map[string]bool{ControlDelete: true},
		[]Notification{{ID: "n", Message: "Patient created successfully", Severity: SeveritySuccess, ExpiresAt: now.Add(NotificationLifetime)}},
		now)

	var buf bytes.Buffer
	require.NoError(t, r.Templates().ExecuteTemplate(&buf, PageTemplate, data))
	out := buf.String()

	assert.Contains(t, out, `id="patientsList"`)
	assert.Contains(t, out, "No patients registered")
	assert.Contains(t, out, `value="5"`)
	assert.Contains(t, out, "Ana &#34;la&#34; &lt;b&gt;")
	assert.Contains(t, out, "Patient created successfully")
	assert.True(t, strings.Contains(out, `id="deleteBtn" class="btn btn-danger" disabled>`+BusyLabel))
	assert.NotContains(t, out, "onclick")
}
