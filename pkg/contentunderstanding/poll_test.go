package contentunderstanding

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cu-eval/internal/model"
)

// mockClient implements Client for testing PollOperation.
type mockClient struct {
	getOperationFunc func(ctx context.Context, location string) (*Operation, error)
}

func (m *mockClient) DeleteAnalyzer(context.Context, string) (bool, error) {
	return false, nil
}

func (m *mockClient) CreateAnalyzer(context.Context, string, AnalyzerDefinition) error {
	return nil
}

func (m *mockClient) AnalyzeBinary(context.Context, string, []byte) (string, error) {
	return "", nil
}

func (m *mockClient) GetOperation(ctx context.Context, location string) (*Operation, error) {
	return m.getOperationFunc(ctx, location)
}

func TestPollOperation_SucceedsImmediately(t *testing.T) {
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			return &Operation{Status: model.OperationSucceeded, Raw: []byte(`{"status":"Succeeded"}`)}, nil
		},
	}

	op, err := PollOperation(context.Background(), mock, "loc", WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, model.OperationSucceeded, op.Status)
}

func TestPollOperation_SucceedsAfterPolls(t *testing.T) {
	var calls atomic.Int32
	var seen []model.OperationStatus
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			switch calls.Add(1) {
			case 1:
				return &Operation{Status: model.OperationNotStarted}, nil
			case 2:
				return &Operation{Status: model.OperationRunning}, nil
			default:
				return &Operation{Status: model.OperationSucceeded}, nil
			}
		},
	}

	op, err := PollOperation(context.Background(), mock, "loc",
		WithPollInterval(5*time.Millisecond),
		WithPollCap(10*time.Millisecond),
		WithStatusHook(func(s model.OperationStatus) { seen = append(seen, s) }),
	)
	require.NoError(t, err)
	assert.Equal(t, model.OperationSucceeded, op.Status)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []model.OperationStatus{model.OperationNotStarted, model.OperationRunning}, seen)
}

func TestPollOperation_Failed(t *testing.T) {
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			return &Operation{
				Status: model.OperationFailed,
				Error:  &ServiceError{Code: "InvalidContent", Message: "unreadable"},
			}, nil
		},
	}

	_, err := PollOperation(context.Background(), mock, "loc")
	var failed *OperationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "loc", failed.Location)
	assert.Equal(t, "InvalidContent", failed.Code)
}

func TestPollOperation_ContextTimeout(t *testing.T) {
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			return &Operation{Status: model.OperationRunning}, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := PollOperation(ctx, mock, "loc", WithPollInterval(10*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestPollOperation_DefaultTimeout(t *testing.T) {
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			return &Operation{Status: model.OperationRunning}, nil
		},
	}

	start := time.Now()
	_, err := PollOperation(context.Background(), mock, "loc",
		WithPollInterval(5*time.Millisecond),
		WithPollTimeout(40*time.Millisecond),
	)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollOperation_ClientError(t *testing.T) {
	mock := &mockClient{
		getOperationFunc: func(ctx context.Context, location string) (*Operation, error) {
			return nil, &APIError{StatusCode: 500, Body: "boom"}
		},
	}

	_, err := PollOperation(context.Background(), mock, "loc")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "poll operation loc")
}
