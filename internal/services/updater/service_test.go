package updater

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/models"
)

// mockProductClient scripts per-call outcomes and records every call.
type mockProductClient struct {
	patchErr    map[string]error // by product id
	replaceErr  error
	fallbackErr error

	patchCalls    []patchCall
	replaceCalls  []imageCall
	fallbackCalls []imageCall
}

type patchCall struct {
	id    string
	token string
	body  map[string]any
	key   string
}

type imageCall struct {
	id     string
	images []string
	key    string
}

func (m *mockProductClient) PatchProduct(ctx context.Context, token, id string, body map[string]any, key string) (map[string]any, error) {
	m.patchCalls = append(m.patchCalls, patchCall{id: id, token: token, body: body, key: key})
	if err := m.patchErr[id]; err != nil {
		return nil, err
	}
	return map[string]any{"data": map[string]any{"id": id}}, nil
}

func (m *mockProductClient) ReplaceImages(ctx context.Context, token, id string, images []string, key string) (map[string]any, error) {
	m.replaceCalls = append(m.replaceCalls, imageCall{id: id, images: images, key: key})
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	return map[string]any{"ok": true}, nil
}

func (m *mockProductClient) PatchImagesFallback(ctx context.Context, token, id string, images []string, key string) (map[string]any, error) {
	m.fallbackCalls = append(m.fallbackCalls, imageCall{id: id, images: images, key: key})
	if m.fallbackErr != nil {
		return nil, m.fallbackErr
	}
	return map[string]any{"ok": true}, nil
}

// mockAuth serves a fixed token or a fixed error.
type mockAuth struct {
	token string
	err   error
	calls int
}

func (m *mockAuth) BeginAuthorization() (string, error) { return "", nil }
func (m *mockAuth) CompleteAuthorization(ctx context.Context, code, state string) error {
	return nil
}
func (m *mockAuth) AccessToken(ctx context.Context) (string, error) {
	m.calls++
	return m.token, m.err
}
func (m *mockAuth) Status() models.AuthStatus { return models.AuthStatus{} }
func (m *mockAuth) Logout()                   {}

func record(id string, payload map[string]any, images ...string) *models.BNRecord {
	if images == nil {
		images = []string{}
	}
	return &models.BNRecord{ID: id, PatchPayload: payload, Images: images}
}

func newTestService(client *mockProductClient, authSvc *mockAuth) *Service {
	return NewService(client, authSvc, common.NewSilentLogger())
}

func TestPatchRecords_HappyPath(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	records := []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
		record("2", map[string]any{"name": "Two"}),
	}

	batch, err := svc.PatchRecords(context.Background(), records, "batch-key")
	require.NoError(t, err)

	assert.True(t, batch.Succeeded())
	assert.Len(t, batch.Results, 2)
	assert.Empty(t, batch.Failures)
	assert.Equal(t, "batch-key", batch.IdempotencyKey)

	require.Len(t, client.patchCalls, 2)
	assert.Equal(t, "batch-key-1", client.patchCalls[0].key)
	assert.Equal(t, "batch-key-2", client.patchCalls[1].key)
	assert.Equal(t, "tok", client.patchCalls[0].token)
	assert.Empty(t, client.replaceCalls)
}

func TestPatchRecords_GeneratesBatchKey(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
	}, "")
	require.NoError(t, err)

	require.NotEmpty(t, batch.IdempotencyKey)
	assert.Equal(t, batch.IdempotencyKey+"-1", batch.Results[0].IdempotencyKey)
}

func TestPatchRecords_MissingIDIsolated(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	records := []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
		record("", map[string]any{"name": "Nameless"}),
		record("3", map[string]any{"name": "Three"}),
	}

	batch, err := svc.PatchRecords(context.Background(), records, "k")
	require.NoError(t, err)

	assert.False(t, batch.Succeeded())
	assert.Len(t, batch.Results, 2)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, models.FailureMissingID, batch.Failures[0].Reason)
	assert.Contains(t, batch.Failures[0].Message, "record 2")

	// Positional keys stay stable even with a skipped record.
	assert.Equal(t, "k-1", batch.Results[0].IdempotencyKey)
	assert.Equal(t, "k-3", batch.Results[1].IdempotencyKey)
}

func TestPatchRecords_NoTokenFailsRemainingFast(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{err: errors.New("unauthenticated")})

	records := []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
		record("2", map[string]any{"name": "Two"}),
	}

	batch, err := svc.PatchRecords(context.Background(), records, "k")
	require.NoError(t, err)

	assert.Empty(t, batch.Results)
	require.Len(t, batch.Failures, 2)
	for _, failure := range batch.Failures {
		assert.Equal(t, models.FailureMissingAccessToken, failure.Reason)
	}
	assert.Empty(t, client.patchCalls, "no upstream call without a token")
}

func TestPatchRecords_EmptyPayloadSkipped(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{}),
	}, "k")
	require.NoError(t, err)

	assert.Empty(t, batch.Results)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, models.FailureEmptyPayload, batch.Failures[0].Reason)
	assert.Empty(t, client.patchCalls)
}

func TestPatchRecords_ImagesOnlyRecordStillPatches(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{}, "http://x/a.png"),
	}, "k")
	require.NoError(t, err)

	require.Len(t, batch.Results, 1)
	require.NotNil(t, batch.Results[0].Images)
	assert.False(t, batch.Results[0].Images.Fallback)
	require.Len(t, client.replaceCalls, 1)
	assert.Equal(t, "k-1-img", client.replaceCalls[0].key)
}

func TestPatchRecords_UpstreamFailureCaptured(t *testing.T) {
	client := &mockProductClient{
		patchErr: map[string]error{
			"2": &models.APIError{
				StatusCode: 422,
				Endpoint:   "/produtos/2",
				Message:    "VALIDATION_ERROR",
				Payload:    map[string]any{"error": map[string]any{"type": "VALIDATION_ERROR"}},
			},
		},
	}
	svc := newTestService(client, &mockAuth{token: "tok"})

	records := []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
		record("2", map[string]any{"name": "Two"}),
		record("3", map[string]any{"name": "Three"}),
	}

	batch, err := svc.PatchRecords(context.Background(), records, "k")
	require.NoError(t, err)

	assert.Len(t, batch.Results, 2)
	require.Len(t, batch.Failures, 1)

	failure := batch.Failures[0]
	assert.Equal(t, "2", failure.ID)
	assert.Equal(t, models.FailureUpstream, failure.Reason)
	assert.Equal(t, 422, failure.Status)
	assert.Equal(t, "VALIDATION_ERROR", failure.Message)
	assert.NotNil(t, failure.Payload)
}

func TestPatchRecords_NonAPIErrorWrapped(t *testing.T) {
	client := &mockProductClient{
		patchErr: map[string]error{"1": fmt.Errorf("request failed: %w", errors.New("dial tcp: timeout"))},
	}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{"name": "One"}),
	}, "k")
	require.NoError(t, err)

	require.Len(t, batch.Failures, 1)
	assert.Equal(t, models.FailureUpstream, batch.Failures[0].Reason)
	assert.Zero(t, batch.Failures[0].Status)
	assert.Contains(t, batch.Failures[0].Message, "timeout")
}

func TestPatchRecords_ImageFallback(t *testing.T) {
	client := &mockProductClient{
		replaceErr: &models.APIError{StatusCode: 404, Message: "not found"},
	}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{"name": "One"}, "http://x/a.png"),
	}, "k")
	require.NoError(t, err)

	require.Len(t, batch.Results, 1)
	outcome := batch.Results[0].Images
	require.NotNil(t, outcome)
	assert.True(t, outcome.Fallback)
	assert.False(t, outcome.Skipped)

	require.Len(t, client.fallbackCalls, 1)
	assert.Equal(t, "k-1-img2", client.fallbackCalls[0].key)
}

func TestPatchRecords_ImageFailureKeepsPrimaryResult(t *testing.T) {
	client := &mockProductClient{
		replaceErr:  errors.New("replace boom"),
		fallbackErr: &models.APIError{StatusCode: 400, Endpoint: "/produtos/1", Message: "bad images"},
	}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), []*models.BNRecord{
		record("1", map[string]any{"name": "One"}, "http://x/a.png"),
	}, "k")
	require.NoError(t, err)

	// Degraded, not failed: the field update stands.
	assert.True(t, batch.Succeeded())
	require.Len(t, batch.Results, 1)

	outcome := batch.Results[0].Images
	require.NotNil(t, outcome)
	assert.True(t, outcome.Skipped)
	assert.Contains(t, outcome.Error, "bad images")
}

func TestPatchRecords_EmptyBatch(t *testing.T) {
	client := &mockProductClient{}
	svc := newTestService(client, &mockAuth{token: "tok"})

	batch, err := svc.PatchRecords(context.Background(), nil, "")
	require.NoError(t, err)
	assert.True(t, batch.Succeeded())
	assert.Empty(t, batch.Results)
	assert.Empty(t, batch.Failures)
}
