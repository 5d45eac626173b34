package taskfn_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/taskfn"
	"github.com/skosovsky/taskfn/testutil"
	"github.com/skosovsky/taskfn/typedesc"
)

var groceryItem = typedesc.RecordOf("GroceryItem",
	typedesc.Field("name", typedesc.String()),
	typedesc.OptionalField("weight_kg", typedesc.Float()),
	typedesc.OptionalField("price", typedesc.Float()),
)

type GroceryItem struct {
	Name     string   `json:"name"`
	WeightKg float64  `json:"weight_kg,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

func newTask(t *testing.T, client taskfn.Client, sig taskfn.Signature, opts ...taskfn.Option) *taskfn.Task {
	t.Helper()
	p := testutil.NewTestPipeline(t, client, opts...)
	task, err := taskfn.NewTask(p, sig)
	require.NoError(t, err)
	return task
}

func TestTask_FencedRecordSequence(t *testing.T) {
	mock := &testutil.MockClient{Response: "```json\n[{\"name\":\"apple\",\"price\":3.5}]\n```"}
	task := newTask(t, mock, taskfn.Signature{
		Name:    "estimate_price",
		Params:  []taskfn.Param{taskfn.Required("items", typedesc.SequenceOf(groceryItem))},
		Returns: typedesc.SequenceOf(groceryItem),
	})

	got, err := task.Call(context.Background(), []GroceryItem{{Name: "apple", WeightKg: 1}})
	require.NoError(t, err)
	assert.Equal(t, []any{typedesc.Record{"name": "apple", "price": 3.5}}, got)
	assert.Equal(t, 1, mock.Calls())

	req := mock.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "estimate_price", req.FunctionName)
	assert.JSONEq(t, `[{"name":"apple","weight_kg":1}]`, req.Arguments["items"])
}

func TestTask_StringToFloat(t *testing.T) {
	mock := &testutil.MockClient{Response: `"7"`}
	task := newTask(t, mock, taskfn.Signature{Name: "seven", Returns: typedesc.Float()})
	got, err := task.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestTask_IntResultIsDecimal(t *testing.T) {
	sig := taskfn.Signature{Name: "count", Returns: typedesc.Int()}

	got, err := newTask(t, &testutil.MockClient{Response: "010"}, sig).Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	for _, raw := range []string{"0x10", "1e20", `"0o10"`} {
		_, err := newTask(t, &testutil.MockClient{Response: raw}, sig).Call(context.Background())
		assert.True(t, taskfn.IsOutputTypeError(err), "response %s", raw)
	}
}

func TestTask_ProviderError(t *testing.T) {
	transport := errors.New("dial tcp: connection refused")
	mock := &testutil.MockClient{Err: transport}
	var summary taskfn.CallSummary
	task := newTask(t, mock, taskfn.Signature{Name: "f", Returns: typedesc.Int()},
		taskfn.WithOnAfterCall(func(_ context.Context, s taskfn.CallSummary, _ time.Duration) {
			summary = s
		}),
	)
	_, err := task.Call(context.Background())
	require.Error(t, err)
	assert.True(t, taskfn.IsProviderError(err))
	assert.ErrorIs(t, err, transport)
	assert.Equal(t, taskfn.StageFailed, summary.Stage)
	assert.Equal(t, taskfn.StageDispatch, summary.FailedAt)
	assert.Equal(t, 0, summary.ResponseBytes)
}

func TestTask_MissingArgumentNeverDispatches(t *testing.T) {
	mock := &testutil.MockClient{Response: "[]"}
	task := newTask(t, mock, taskfn.Signature{
		Name: "filter_prefix",
		Params: []taskfn.Param{
			taskfn.Required("items", typedesc.SequenceOf(groceryItem)),
			taskfn.Required("prefix", typedesc.String()),
		},
		Returns: typedesc.SequenceOf(groceryItem),
	})
	_, err := task.Call(context.Background(), []GroceryItem{{Name: "apple"}})
	require.Error(t, err)
	assert.True(t, taskfn.IsBindingError(err))
	assert.Equal(t, 0, mock.Calls())
}

func TestTask_InputTypeErrorNeverDispatches(t *testing.T) {
	mock := &testutil.MockClient{Response: "1"}
	task := newTask(t, mock, taskfn.Signature{
		Name:    "double",
		Params:  []taskfn.Param{taskfn.Required("n", typedesc.Int())},
		Returns: typedesc.Int(),
	})
	_, err := task.Call(context.Background(), "not a number")
	var ie *taskfn.InputTypeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "n", ie.Param)
	assert.True(t, typedesc.IsCoercionError(err))
	assert.Equal(t, 0, mock.Calls())
}

func TestTask_OutputTypeError(t *testing.T) {
	mock := &testutil.MockClient{Response: "I think the answer is seven"}
	task := newTask(t, mock, taskfn.Signature{Name: "seven", Returns: typedesc.Float()})
	_, err := task.Call(context.Background())
	require.Error(t, err)
	assert.True(t, taskfn.IsOutputTypeError(err))
	assert.True(t, typedesc.IsCoercionError(err))
}

func TestTask_RecordStrictVsBestEffort(t *testing.T) {
	raw := `{"name":"apple","colour":"red"}`
	sig := taskfn.Signature{Name: "pick", Returns: groceryItem}

	strict := newTask(t, &testutil.MockClient{Response: raw}, sig)
	_, err := strict.Call(context.Background())
	require.Error(t, err)
	assert.True(t, taskfn.IsOutputTypeError(err))

	lenient := newTask(t, &testutil.MockClient{Response: raw}, sig, taskfn.WithBestEffort())
	got, err := lenient.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "apple", "colour": "red"}, got)
	_, isRecord := got.(typedesc.Record)
	assert.False(t, isRecord)
}

func TestTask_RequestContents(t *testing.T) {
	mock := &testutil.MockClient{Response: "ok"}
	reg := testutil.NewTestRegistry(taskfn.ToolEntry{Identity: "holidays.publicHoliday", Name: "publicHoliday"})
	p, err := taskfn.NewPipeline(mock, reg)
	require.NoError(t, err)
	task, err := taskfn.NewTask(p, taskfn.Signature{
		Name: "describe",
		Params: []taskfn.Param{
			taskfn.Required("name", typedesc.String()),
			taskfn.Optional("count", typedesc.Int(), int64(3)),
			taskfn.Optional("note", typedesc.String(), nil),
		},
		Returns: typedesc.String(),
	})
	require.NoError(t, err)

	got, err := task.Call(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	req := mock.LastRequest()
	assert.Equal(t, map[string]string{"name": "apple", "count": "3", "note": "null"}, req.Arguments)
	assert.Equal(t, taskfn.DefaultPrompt, req.Prompt)
	assert.Equal(t, "string", req.ReturnType.String())
	require.Contains(t, req.AvailableTools, "holidays.publicHoliday")

	// The request holds a snapshot: later registrations do not show up in it.
	reg.Register(taskfn.ToolEntry{Identity: "late.tool"})
	assert.NotContains(t, req.AvailableTools, "late.tool")
}

func TestTask_Hooks(t *testing.T) {
	mock := &testutil.MockClient{Response: "12"}
	var (
		mu      sync.Mutex
		before  []string
		summary taskfn.CallSummary
	)
	task := newTask(t, mock, taskfn.Signature{Name: "count", Returns: typedesc.Int()},
		taskfn.WithOnBeforeDispatch(func(_ context.Context, req *taskfn.Request) {
			mu.Lock()
			defer mu.Unlock()
			before = append(before, req.FunctionName)
		}),
		taskfn.WithOnAfterCall(func(_ context.Context, s taskfn.CallSummary, d time.Duration) {
			summary = s
			assert.GreaterOrEqual(t, d, time.Duration(0))
		}),
	)
	got, err := task.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)
	assert.Equal(t, []string{"count"}, before)
	assert.Equal(t, taskfn.StageDone, summary.Stage)
	assert.Equal(t, "count", summary.Task)
	assert.NotEmpty(t, summary.CallID)
	assert.Equal(t, 2, summary.ResponseBytes)
	assert.NoError(t, summary.Error)
}

func TestTask_ConcurrentCalls(t *testing.T) {
	mock := &testutil.MockClient{GenerateFn: func(_ context.Context, req *taskfn.Request) (string, error) {
		return req.Arguments["n"], nil
	}}
	task := newTask(t, mock, taskfn.Signature{
		Name:    "echo",
		Params:  []taskfn.Param{taskfn.Required("n", typedesc.Int())},
		Returns: typedesc.Int(),
	})
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			got, err := task.Call(context.Background(), i)
			assert.NoError(t, err)
			assert.Equal(t, int64(i), got)
		})
	}
	wg.Wait()
	assert.Equal(t, 20, mock.Calls())
}

func TestNewPipeline_Errors(t *testing.T) {
	_, err := taskfn.NewPipeline(nil, taskfn.NewRegistry())
	require.ErrorIs(t, err, taskfn.ErrNilClient)
	_, err = taskfn.NewPipeline(&testutil.MockClient{}, nil)
	require.ErrorIs(t, err, taskfn.ErrNilRegistry)
}

func TestNewTask_Errors(t *testing.T) {
	p := testutil.NewTestPipeline(t, &testutil.MockClient{})
	_, err := taskfn.NewTask(p, taskfn.Signature{})
	require.ErrorIs(t, err, taskfn.ErrInvalidSignature)
	_, err = taskfn.NewTask(nil, taskfn.Signature{Name: "f"})
	require.ErrorIs(t, err, taskfn.ErrNilPipeline)
}
