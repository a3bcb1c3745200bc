package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable Backend. When gate is non-nil, ContinueChat
// blocks until the gate channel is closed.
type fakeBackend struct {
	mu            sync.Mutex
	startErr      error
	continueErr   error
	reply         string
	gate          chan struct{}
	startCalls    int
	continueCalls int
	lastSystem    string
	lastPayload   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{reply: "回复"}
}

func (f *fakeBackend) StartChat(ctx context.Context, systemPrompt, userPrompt string) (models.ChatTurn, error) {
	f.mu.Lock()
	f.startCalls++
	f.lastSystem = systemPrompt
	f.lastPayload = userPrompt
	err := f.startErr
	f.mu.Unlock()
	if err != nil {
		return models.ChatTurn{}, err
	}
	return models.NewTurn(models.RoleAssistant, "开场白"), nil
}

func (f *fakeBackend) ContinueChat(ctx context.Context, systemPrompt, conversation string) (models.ChatTurn, error) {
	f.mu.Lock()
	f.continueCalls++
	f.lastSystem = systemPrompt
	f.lastPayload = conversation
	err := f.continueErr
	gate := f.gate
	reply := f.reply
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.ChatTurn{}, err
	}
	return models.NewTurn(models.RoleAssistant, reply), nil
}

func (f *fakeBackend) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.continueCalls
}

func testProfile() models.UserProfile {
	return models.UserProfile{Name: "张三", BirthDate: "1990-05-20", BirthHour: "午", Request: "搬家"}
}

func openSession(t *testing.T, backend Backend) (*Manager, *Session) {
	t.Helper()
	mgr := NewManager(backend, nil)
	s, err := mgr.Open(context.Background(), testProfile(), models.Reading{Title: "方案"})
	require.NoError(t, err)
	return mgr, s
}

func TestOpenHappyPath(t *testing.T) {
	backend := newFakeBackend()
	mgr, s := openSession(t, backend)

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, DefaultQuota, s.Remaining())
	require.Len(t, s.Turns(), 1)
	assert.Equal(t, models.RoleAssistant, s.Turns()[0].Role)
	assert.Equal(t, 1, mgr.Len())

	// The opening payload carries the hidden context, not the raw transcript.
	assert.Contains(t, backend.lastPayload, "HIDDEN CONTEXT")
	assert.Contains(t, backend.lastPayload, "张三")
}

func TestOpenFailureLeavesNothing(t *testing.T) {
	backend := newFakeBackend()
	backend.startErr = errors.New("upstream status 500")
	mgr := NewManager(backend, nil)

	s, err := mgr.Open(context.Background(), testProfile(), models.Reading{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 0, mgr.Len(), "failed opening must not leave a session behind")
}

func TestSendHappyPath(t *testing.T) {
	backend := newFakeBackend()
	_, s := openSession(t, backend)

	reply, err := s.Send(context.Background(), "  五月如何？ ")
	require.NoError(t, err)

	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, 2, s.Remaining())

	turns := s.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, models.RoleUser, turns[1].Role)
	assert.Equal(t, "五月如何？", turns[1].Content, "user message should be trimmed")
	assert.Equal(t, models.RoleAssistant, turns[2].Role)

	// Follow-up payload is the flattened transcript including the new turn.
	assert.Contains(t, backend.lastPayload, "assistant: 开场白")
	assert.True(t, strings.HasSuffix(backend.lastPayload, "user: 五月如何？"))
}

func TestQuotaMonotonicity(t *testing.T) {
	backend := newFakeBackend()
	_, s := openSession(t, backend)

	// Two successes, one failure: quota cost is identical.
	_, err := s.Send(context.Background(), "一")
	require.NoError(t, err)

	backend.continueErr = errors.New("network down")
	_, err = s.Send(context.Background(), "二")
	require.Error(t, err)
	backend.continueErr = nil

	_, err = s.Send(context.Background(), "三")
	require.NoError(t, err)

	assert.Equal(t, 0, s.Remaining())

	// Fourth submission is rejected before reaching the backend.
	_, continueBefore := backend.counts()
	_, err = s.Send(context.Background(), "四")
	require.ErrorIs(t, err, ErrQuotaExhausted)
	_, continueAfter := backend.counts()
	assert.Equal(t, continueBefore, continueAfter, "exhausted quota must not produce a network call")
}

func TestTranscriptAppendOnly(t *testing.T) {
	backend := newFakeBackend()
	_, s := openSession(t, backend)

	_, err := s.Send(context.Background(), "成功的问题")
	require.NoError(t, err)
	assert.Len(t, s.Turns(), 3, "success appends user and assistant turns")

	backend.continueErr = errors.New("boom")
	_, err = s.Send(context.Background(), "失败的问题")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrQuotaExhausted)

	turns := s.Turns()
	assert.Len(t, turns, 4, "failure appends the user turn only")
	assert.Equal(t, models.RoleUser, turns[3].Role)
	assert.Equal(t, 1, s.Remaining(), "quota is consumed even on failure")

	// Still submittable after the failure, quota permitting.
	assert.True(t, s.CanSubmit())
}

func TestHappyPathScenario(t *testing.T) {
	backend := newFakeBackend()
	_, s := openSession(t, backend)

	for i, q := range []string{"What about May?", "And June?", "Best direction?"} {
		_, err := s.Send(context.Background(), q)
		require.NoError(t, err, "question %d", i+1)
	}

	assert.Equal(t, 0, s.Remaining())
	assert.Len(t, s.Turns(), 7, "1 opening + 2 per accepted question")

	_, err := s.Send(context.Background(), "one more")
	require.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Len(t, s.Turns(), 7)
}

func TestEmptyMessageRejected(t *testing.T) {
	backend := newFakeBackend()
	_, s := openSession(t, backend)

	_, err := s.Send(context.Background(), "   \n ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, DefaultQuota, s.Remaining(), "rejected input costs nothing")
	assert.Len(t, s.Turns(), 1)
}

func TestBusySessionRejectsSecondSubmit(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	_, s := openSession(t, backend)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "第一问")
		firstDone <- err
	}()

	// Wait until the first call is in flight.
	require.Eventually(t, func() bool {
		return s.State() == StateAwaitingResponse
	}, time.Second, time.Millisecond)

	_, err := s.Send(context.Background(), "第二问")
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 2, s.Remaining(), "rejected submit must not cost quota")

	close(backend.gate)
	require.NoError(t, <-firstDone)
	assert.Len(t, s.Turns(), 3)
}

func TestCanSubmit(t *testing.T) {
	backend := newFakeBackend()
	mgr, s := openSession(t, backend)

	assert.True(t, s.CanSubmit())

	backend.gate = make(chan struct{})
	go func() { _, _ = s.Send(context.Background(), "问") }()
	require.Eventually(t, func() bool {
		return s.State() == StateAwaitingResponse
	}, time.Second, time.Millisecond)
	assert.False(t, s.CanSubmit(), "in-flight call blocks submission")
	close(backend.gate)

	require.Eventually(t, func() bool {
		return s.State() == StateReady
	}, time.Second, time.Millisecond)

	mgr.Close(s.ID())
	assert.False(t, s.CanSubmit(), "closed session blocks submission")
}

func TestStaleResponseIgnored(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	mgr, s := openSession(t, backend)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "问")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateAwaitingResponse
	}, time.Second, time.Millisecond)

	require.True(t, mgr.Close(s.ID()))
	close(backend.gate)

	err := <-done
	require.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, s.Turns(), "resolution after close must not touch the discarded transcript")
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 0, mgr.Len())
}

func TestCloseUnknownSession(t *testing.T) {
	mgr := NewManager(newFakeBackend(), nil)
	assert.False(t, mgr.Close(uuid.New()))
}

func TestReopenResetsQuota(t *testing.T) {
	backend := newFakeBackend()
	mgr, s := openSession(t, backend)

	_, err := s.Send(context.Background(), "一")
	require.NoError(t, err)
	require.Equal(t, 2, s.Remaining())
	mgr.Close(s.ID())

	s2, err := mgr.Open(context.Background(), testProfile(), models.Reading{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQuota, s2.Remaining())
	assert.Len(t, s2.Turns(), 1)
	assert.NotEqual(t, s.ID(), s2.ID())
}
