package session

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/ariebrainware/patient-console/model"
	"github.com/ariebrainware/patient-console/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "n" + string(rune('0'+n))
	}
}

func TestPage_KeepsSubmittedValuesUnlessReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	values := url.Values{view.FieldCreateName: {"Ana"}, view.FieldCreateEmail: {"a@x.com"}, "unrelated": {"x"}}

	page := NewPage(store, "s1", view.FormCreate, values)
	assert.Equal(t, "Ana", page.Value(view.FormCreate, view.FieldCreateName))
	require.NoError(t, page.Commit(ctx))

	doc, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{view.FieldCreateName: "Ana", view.FieldCreateEmail: "a@x.com"}, doc.Forms[view.FormCreate])

	page = NewPage(store, "s1", view.FormCreate, values)
	page.Reset(view.FormCreate)
	page.Reset(view.FormCreate)
	require.NoError(t, page.Commit(ctx))

	doc, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, doc.Forms, view.FormCreate)
}

func TestPage_NotifyStampsLifetime(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	page := NewPage(NewMemoryStore(time.Hour), "s1", "", nil, WithClock(fixedClock(now)), WithIDs(sequentialIDs()))

	page.Notify("Error loading patients: boom", view.SeverityError)

	notes := page.Patch().Notifications
	require.Len(t, notes, 1)
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, view.SeverityError, notes[0].Severity)
	assert.Equal(t, now.Add(5*time.Second), notes[0].ExpiresAt)
}

func TestPage_Confirm(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	assert.True(t, NewPage(store, "s", "", url.Values{"confirmed": {"true"}}).Confirm(view.ConfirmDeleteMessage))
	assert.False(t, NewPage(store, "s", "", url.Values{"confirmed": {"false"}}).Confirm(view.ConfirmDeleteMessage))
	assert.False(t, NewPage(store, "s", "", nil).Confirm(view.ConfirmDeleteMessage))
}

func TestPage_CardLookupUsesStoredList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	first := NewPage(store, "s1", "", nil)
	first.RememberCards([]model.Patient{{ID: "7", Name: "Ana", Email: "a@x.com"}})
	p, ok, err := first.Card(ctx, "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ana", p.Name)
	require.NoError(t, first.Commit(ctx))

	second := NewPage(store, "s1", "", url.Values{"id": {"7"}})
	p, ok, err = second.Card(ctx, "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", p.Email)

	_, ok, err = second.Card(ctx, "8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPage_BusyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	page := NewPage(store, "s1", "", nil)

	label, err := page.SetBusy(ctx, view.ControlSearch)
	require.NoError(t, err)
	assert.Equal(t, "Search", label)

	_, err = page.SetBusy(ctx, view.ControlSearch)
	assert.True(t, errors.Is(err, view.ErrControlBusy))

	require.NoError(t, page.ClearBusy(ctx, view.ControlSearch, label))
	_, err = page.SetBusy(ctx, view.ControlSearch)
	assert.NoError(t, err)
}

func TestPage_Anchor(t *testing.T) {
	page := NewPage(NewMemoryStore(time.Hour), "s1", "", nil)
	assert.Equal(t, "", page.Anchor())
	page.ScrollTo(view.FormUpdate)
	assert.Equal(t, "#updateForm", page.Anchor())
}

func TestPage_CommitWithoutChangesIsNoop(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	page := NewPage(store, "s1", "", nil)

	assert.True(t, page.Patch().Empty())
	assert.NoError(t, page.Commit(context.Background()))
}

func TestPage_MarkPendingUntilCleared(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	page := NewPage(store, "s1", "", nil)
	page.MarkPending()
	require.NoError(t, page.Commit(ctx))

	doc, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, doc.Pending)

	require.NoError(t, ClearPending(ctx, store, "s1"))
	doc, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, doc.Pending)
}
