package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyEnrollment(t *testing.T, gw *fakeGateway) *Enrollment {
	t.Helper()

	gw.artifact = entity.NewArtifact("QUJD")
	e := newTestUsecase(gw).NewEnrollment()
	e.Start(context.Background())
	require.Equal(t, entity.EnrollmentReady, e.View().State)
	return e
}

func TestEnrollment_Start(t *testing.T) {
	gw := &fakeGateway{artifact: entity.NewArtifact("QUJD")}
	e := newTestUsecase(gw).NewEnrollment()

	view := e.View()
	assert.Equal(t, entity.EnrollmentBootstrapping, view.State)
	assert.Equal(t, "user_test_1", view.Identity)
	assert.False(t, view.CanSubmit)

	e.Start(context.Background())
	e.Start(context.Background())

	view = e.View()
	assert.Equal(t, entity.EnrollmentReady, view.State)
	assert.Equal(t, "data:image/png;base64,QUJD", view.Artifact.DataURI())
	assert.Equal(t, []gatewayCall{{op: "enroll", identity: "user_test_1"}}, gw.Calls())
}

func TestEnrollment_StartFailure(t *testing.T) {
	gw := &fakeGateway{provisionErr: goerror.NewServer(errDial)}
	e := newTestUsecase(gw).NewEnrollment()

	e.Start(context.Background())

	view := e.View()
	assert.Equal(t, entity.EnrollmentFailed, view.State)
	assert.Equal(t, entity.MsgBootstrapFailed, view.Error)
	assert.True(t, view.Artifact.IsZero())

	e.Paste("123456")
	assert.False(t, e.Submit(context.Background()))
	assert.Len(t, gw.Calls(), 1, "no automatic retry and no confirm")
}

func TestEnrollment_SubmitIgnoredUntilComplete(t *testing.T) {
	gw := &fakeGateway{}
	e := readyEnrollment(t, gw)

	e.Paste("12345")
	assert.False(t, e.CanSubmit())
	assert.False(t, e.Submit(context.Background()))

	view := e.View()
	assert.Equal(t, entity.EnrollmentReady, view.State)
	assert.Empty(t, view.Error)
	assert.Len(t, gw.Calls(), 1)
}

func TestEnrollment_SubmitAccepted(t *testing.T) {
	gw := &fakeGateway{}
	e := readyEnrollment(t, gw)

	focus := e.Paste("123456")
	idx, ok := focus.Index()
	assert.True(t, ok)
	assert.Equal(t, 5, idx)
	assert.True(t, e.CanSubmit())

	assert.True(t, e.Submit(context.Background()))

	view := e.View()
	assert.Equal(t, entity.EnrollmentSucceeded, view.State)
	assert.False(t, view.CanSubmit)
	assert.Equal(t, gatewayCall{op: "confirm", identity: "user_test_1", code: "123456"}, gw.Calls()[1])

	assert.False(t, e.Submit(context.Background()), "submit after success is a no-op")
	e.SetSlot(0, "9")
	assert.Equal(t, "1", e.View().Slots[0], "code frozen after success")
	assert.Len(t, gw.Calls(), 2)
}

func TestEnrollment_SubmitRejected(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "server message",
			err:     goerror.NewBusiness("Code already used", goerror.CodeUnauthorized),
			wantMsg: "Code already used",
		},
		{
			name:    "no server message",
			err:     goerror.NewBusiness("", goerror.CodeInvalidFormat),
			wantMsg: entity.MsgConfirmRejected,
		},
		{
			name:    "transport",
			err:     goerror.NewServer(errDial),
			wantMsg: entity.MsgTransportFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			e := readyEnrollment(t, gw)
			e.Paste("654321")
			gw.confirmErr = tt.err

			assert.True(t, e.Submit(context.Background()))

			view := e.View()
			assert.Equal(t, entity.EnrollmentReady, view.State)
			assert.Equal(t, tt.wantMsg, view.Error)
			assert.Equal(t, "654321", strings.Join(view.Slots[:], ""), "code retained for correction")
			assert.True(t, view.CanSubmit)

			gw.confirmErr = nil
			assert.True(t, e.Submit(context.Background()))
			assert.Equal(t, entity.EnrollmentSucceeded, e.View().State)
			assert.Empty(t, e.View().Error)
		})
	}
}

func TestEnrollment_SingleRequestInFlight(t *testing.T) {
	gw := &fakeGateway{}
	e := readyEnrollment(t, gw)
	e.Paste("123456")

	gw.entered = make(chan struct{}, 1)
	gw.release = make(chan struct{})

	done := make(chan bool)
	go func() { done <- e.Submit(context.Background()) }()

	select {
	case <-gw.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("confirm was not called")
	}

	view := e.View()
	assert.Equal(t, entity.EnrollmentSubmitting, view.State)
	assert.False(t, view.CanSubmit)
	assert.False(t, e.Submit(context.Background()), "second submit ignored while in flight")
	e.Paste("999999")
	assert.Equal(t, "1", e.View().Slots[0], "code frozen while submitting")

	close(gw.release)
	assert.True(t, <-done)
	assert.Equal(t, entity.EnrollmentSucceeded, e.View().State)
	assert.Len(t, gw.Calls(), 2)
}

func TestEnrollment_Restart(t *testing.T) {
	gw := &fakeGateway{}
	e := readyEnrollment(t, gw)
	e.Paste("12")
	gw.confirmErr = goerror.NewBusiness("nope", goerror.CodeUnauthorized)

	e.Restart(context.Background())

	view := e.View()
	assert.Equal(t, entity.EnrollmentReady, view.State)
	assert.Equal(t, "user_test_2", view.Identity)
	assert.Equal(t, [entity.CodeLength]string{}, view.Slots)
	assert.Zero(t, view.Focus)
	assert.Equal(t, gatewayCall{op: "enroll", identity: "user_test_2"}, gw.Calls()[1])
}

func TestEnrollment_RestartDiscardsStaleResult(t *testing.T) {
	gw := &fakeGateway{}
	e := readyEnrollment(t, gw)
	e.Paste("123456")

	gw.entered = make(chan struct{}, 2)
	gw.release = make(chan struct{})
	gw.confirmErr = goerror.NewBusiness("late", goerror.CodeUnauthorized)

	done := make(chan struct{})
	go func() {
		e.Submit(context.Background())
		close(done)
	}()
	<-gw.entered

	restarted := make(chan struct{})
	go func() {
		e.Restart(context.Background())
		close(restarted)
	}()
	<-gw.entered

	close(gw.release)
	<-done
	<-restarted

	view := e.View()
	assert.Equal(t, entity.EnrollmentReady, view.State)
	assert.Empty(t, view.Error, "rejection from the old identity is dropped")
	assert.Equal(t, "user_test_2", view.Identity)
}

func TestEnrollment_FocusTracking(t *testing.T) {
	e := readyEnrollment(t, &fakeGateway{})

	e.SetSlot(0, "1")
	assert.Equal(t, 1, e.View().Focus)

	e.Backspace(1)
	assert.Equal(t, 0, e.View().Focus)

	e.SetSlot(0, "a")
	assert.Equal(t, 0, e.View().Focus)
	assert.Equal(t, "1", e.View().Slots[0])

	e.SetSlot(0, "")
	assert.Empty(t, e.View().Slots[0])
}
