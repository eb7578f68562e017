package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timify-bridge/internal/models"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func configuredBlock() *models.BlockSettings {
	settings := models.DefaultBlockSettings("course-1", "block-1")
	settings.IDForm = "11223344"
	return &settings
}

type linkFixture struct {
	blocks  *blockReaderStub
	store   *linkStoreStub
	creds   *credentialProviderStub
	client  *timifyClientStub
	service *LinkService
}

func newLinkFixture(settings *models.BlockSettings) *linkFixture {
	f := &linkFixture{
		blocks: &blockReaderStub{settings: settings},
		store:  newLinkStoreStub(),
		creds:  &credentialProviderStub{cred: validCredential()},
		client: &timifyClientStub{},
	}
	f.service = NewLinkService(f.blocks, f.store, f.creds, f.client, NewDueDatePolicy(func() time.Time { return fixedNow }), nil, LinkServiceConfig{}, nil)
	return f
}

var student = models.Viewer{UserID: "student-1", Username: "test", Role: models.RoleStudent}

func TestStudentViewCreatesLinkForEmptyState(t *testing.T) {
	settings := configuredBlock()
	settings.Duration = 120
	settings.Autoclose = models.AutocloseYes
	f := newLinkFixture(settings)
	f.client.createLinks = []timify.Link{{ID: "1", Hash: "testhash", Label: "test"}}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	require.Len(t, f.client.createRequests, 1)
	req := f.client.createRequests[0]
	assert.Equal(t, []string{"test"}, req.Labels)
	assert.Equal(t, 120, req.ExpiresIn)
	assert.True(t, req.ForceClose)
	assert.Equal(t, "11223344", req.FormID)

	require.Len(t, f.store.saves, 1)
	saved, err := f.store.saves[0].State.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_form":"11223344","id_link":"1","link":"testhash","name_link":"test","score":"Sin Registros","expired":null}`, string(saved))

	assert.True(t, view.Linked)
	assert.False(t, view.Done)
	assert.Equal(t, "https://timify.me/link/testhash", view.Link)
	assert.Equal(t, "test", view.NameLink)
	assert.Equal(t, models.NoData, view.Score)
	assert.Equal(t, models.NoData, view.Late)
}

func TestStudentViewRecreatesLinkWhenFormChanged(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.store.put("student-1", models.LinkState{IDForm: "999", IDLink: "7", Link: "old", NameLink: "test", Score: models.RecordedScore("5")})
	f.client.createLinks = []timify.Link{{ID: "8", Hash: "newhash", Label: "test"}}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.Len(t, f.client.createRequests, 1)
	assert.Zero(t, f.client.pollCalls)
	state := f.store.records["student-1"].State
	assert.Equal(t, "11223344", state.IDForm)
	assert.Equal(t, "8", state.IDLink)
	assert.False(t, state.Score.IsSet())
	assert.Equal(t, "https://timify.me/link/newhash", view.Link)
}

func TestStudentViewCreateFailureLeavesStateUntouched(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.client.createErr = &timify.RemoteError{Op: "create_links", StatusCode: http.StatusInternalServerError}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.False(t, view.Linked)
	assert.Empty(t, f.store.saves)
	assert.True(t, f.store.records["student-1"].State.IsEmpty())
	assert.Zero(t, f.creds.invalidations)
}

func TestStudentViewInvalidatesCredentialOnUnauthorized(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.client.createErr = &timify.RemoteError{Op: "create_links", StatusCode: http.StatusUnauthorized}

	f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.Equal(t, 1, f.creds.invalidations)
}

func TestStudentViewPollsAndMergesMatchingLink(t *testing.T) {
	settings := configuredBlock()
	due := fixedNow.Add(time.Hour)
	settings.DueAt = &due
	f := newLinkFixture(settings)
	f.store.put("student-1", models.LinkState{IDForm: "11223344", IDLink: "1", Link: "testhash", NameLink: "test"})
	finished := fixedNow.Add(2 * time.Hour).Format(time.RFC3339)
	f.client.statuses = []timify.LinkStatus{
		{ID: "2", Score: strPtr("1")},
		{ID: "1", Score: strPtr("7"), FinishedAt: &finished},
	}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", models.Viewer{UserID: "student-1", Username: "test"})

	assert.Empty(t, f.client.createRequests)
	assert.Equal(t, 1, f.client.pollCalls)
	assert.True(t, view.Done)
	assert.Equal(t, "7", view.Score)
	assert.Equal(t, string(models.LatenessYes), view.Late)
	require.Len(t, f.store.saves, 1)
	assert.Equal(t, finished, *f.store.saves[0].State.Expired)
}

func TestStudentViewPollWithoutChangesDoesNotSave(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.store.put("student-1", models.LinkState{IDForm: "11223344", IDLink: "1", Link: "testhash", NameLink: "test"})
	f.client.statuses = []timify.LinkStatus{{ID: "1"}}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.False(t, view.Done)
	assert.Empty(t, f.store.saves)
	assert.Equal(t, models.NoData, view.Late)
}

func TestStudentViewPastDueSkipsRemoteCalls(t *testing.T) {
	settings := configuredBlock()
	due := fixedNow.Add(-2 * time.Hour)
	grace := 3600
	settings.DueAt = &due
	settings.GracePeriodSeconds = &grace
	f := newLinkFixture(settings)
	f.store.put("student-1", models.LinkState{IDForm: "11223344", IDLink: "1", Link: "h", NameLink: "test", Score: models.RecordedScore("9")})

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.True(t, view.Expired)
	assert.Equal(t, "9", view.Score)
	assert.Zero(t, f.client.remoteCalls())
	assert.Zero(t, f.creds.gets)
	assert.Zero(t, f.store.getOrCreateCalls)
}

func TestStudentViewPastDueWithoutStateShowsNoData(t *testing.T) {
	settings := configuredBlock()
	due := fixedNow.Add(-time.Minute)
	settings.DueAt = &due
	f := newLinkFixture(settings)

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.True(t, view.Expired)
	assert.Equal(t, models.NoData, view.Score)
	assert.Empty(t, f.store.records)
}

func TestStudentViewWithoutCredentialIsDegraded(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.creds.cred = nil

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.True(t, view.Degraded)
	assert.Equal(t, models.NoData, view.Score)
	assert.Zero(t, f.client.remoteCalls())
	assert.Zero(t, f.store.getOrCreateCalls)
}

func TestStudentViewWithoutFormIsNotConfigured(t *testing.T) {
	f := newLinkFixture(nil)

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.False(t, view.Configured)
	assert.Equal(t, models.DefaultDisplayName, view.DisplayName)
	assert.Zero(t, f.creds.gets)
	assert.Zero(t, f.client.remoteCalls())
}

func TestStudentViewForStaffSkipsReconciliation(t *testing.T) {
	f := newLinkFixture(configuredBlock())

	view := f.service.StudentView(context.Background(), "course-1", "block-1", models.Viewer{UserID: "instructor-1", Role: models.RoleInstructor})

	assert.True(t, view.IsCourseStaff)
	assert.Zero(t, f.creds.gets)
	assert.Zero(t, f.client.remoteCalls())
}

func TestStudentViewSettingsFailureDegrades(t *testing.T) {
	f := newLinkFixture(nil)
	f.blocks.err = errors.New("db down")

	view := f.service.StudentView(context.Background(), "course-1", "block-1", student)

	assert.True(t, view.Degraded)
	assert.Zero(t, f.client.remoteCalls())
}

func TestStudentViewWithoutUserIDTouchesNoState(t *testing.T) {
	for _, viewer := range []models.Viewer{
		{Role: models.RoleStaff},
		{Role: models.RoleStudent, Username: "anon"},
	} {
		f := newLinkFixture(configuredBlock())
		f.client.createLinks = []timify.Link{{ID: "1", Hash: "testhash", Label: "anon"}}

		view := f.service.StudentView(context.Background(), "course-1", "block-1", viewer)

		assert.Equal(t, 0, f.store.getOrCreateCalls)
		assert.Equal(t, 0, f.store.findCalls)
		assert.Empty(t, f.client.createRequests)
		assert.Empty(t, f.store.saves)
		assert.Equal(t, 0, f.creds.gets)
		assert.Equal(t, 0, f.client.remoteCalls())
		assert.False(t, view.Linked)
		assert.False(t, view.IsCourseStaff)
		assert.True(t, view.Configured)
		assert.Equal(t, models.NoData, view.Score)
	}
}

func TestStudentViewWithoutUsernameSkipsCreate(t *testing.T) {
	f := newLinkFixture(configuredBlock())
	f.client.createLinks = []timify.Link{{ID: "1", Hash: "testhash", Label: "student-1"}}

	view := f.service.StudentView(context.Background(), "course-1", "block-1", models.Viewer{UserID: "student-1", Role: models.RoleStudent})

	assert.Empty(t, f.client.createRequests)
	assert.Empty(t, f.store.saves)
	assert.False(t, view.Linked)
}
