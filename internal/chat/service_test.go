package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/masterchat/internal/metrics"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records prompts and returns canned output.
type fakeGenerator struct {
	textOut string
	jsonOut string
	err     error

	lastSystem string
	lastUser   string
	jsonCalled bool
}

func (f *fakeGenerator) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.textOut, f.err
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.jsonCalled = true
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.jsonOut, f.err
}

func TestStartChat(t *testing.T) {
	gen := &fakeGenerator{textOut: "  您好，施主。\n"}
	svc := NewService(gen, time.Second, nil, nil)

	turn, err := svc.StartChat(context.Background(), "system", "user")
	require.NoError(t, err)

	assert.Equal(t, models.RoleAssistant, turn.Role)
	assert.Equal(t, "您好，施主。", turn.Content, "content should be trimmed")
	assert.False(t, turn.CreatedAt.IsZero())
	assert.Equal(t, "system", gen.lastSystem)
	assert.Equal(t, "user", gen.lastUser)
}

func TestStartChatUpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream status 500")}
	svc := NewService(gen, time.Second, nil, nil)

	_, err := svc.StartChat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start chat")
	assert.Contains(t, err.Error(), "upstream status 500")
}

func TestStartChatNoContent(t *testing.T) {
	gen := &fakeGenerator{textOut: "   \n\t"}
	svc := NewService(gen, time.Second, nil, nil)

	_, err := svc.StartChat(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrNoContent)
}

func TestContinueChatWrapsConversation(t *testing.T) {
	gen := &fakeGenerator{textOut: "五月宜迁。"}
	svc := NewService(gen, time.Second, nil, nil)

	conversation := "assistant: 您好\n\nuser: 五月如何？"
	turn, err := svc.ContinueChat(context.Background(), "persona", conversation)
	require.NoError(t, err)

	assert.Equal(t, "五月宜迁。", turn.Content)
	assert.True(t, strings.HasPrefix(gen.lastUser, "Context:\n\n"), "transcript must be wrapped as context")
	assert.Contains(t, gen.lastUser, conversation)
}

func TestContinueChatNoContent(t *testing.T) {
	gen := &fakeGenerator{textOut: ""}
	svc := NewService(gen, time.Second, nil, nil)

	_, err := svc.ContinueChat(context.Background(), "s", "c")
	require.ErrorIs(t, err, ErrNoContent)
}

func TestGenerateReading(t *testing.T) {
	gen := &fakeGenerator{jsonOut: `{"title":"t"}`}
	collector := metrics.NewCollector()
	svc := NewService(gen, time.Second, nil, collector)

	out, err := svc.GenerateReading(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, `{"title":"t"}`, out)
	assert.True(t, gen.jsonCalled, "reading must use the structured-output path")

	snap := collector.Snapshot()
	require.NotNil(t, snap.Reading)
	assert.Equal(t, int64(1), snap.Reading.Count)
}

func TestCallRecordsFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	collector := metrics.NewCollector()
	svc := NewService(gen, time.Second, nil, collector)

	_, err := svc.StartChat(context.Background(), "s", "u")
	require.Error(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.ChatStart)
	assert.Equal(t, int64(1), snap.ChatStart.Failures)
}

// slowGenerator blocks until its context is cancelled.
type slowGenerator struct{}

func (slowGenerator) GenerateWithSystem(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowGenerator) GenerateJSON(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCallTimeout(t *testing.T) {
	svc := NewService(slowGenerator{}, 10*time.Millisecond, nil, nil)

	_, err := svc.StartChat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
