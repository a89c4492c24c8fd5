package websocket

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/stretchr/testify/require"
)

func TestHandlerWithLogsIncCounter(t *testing.T) {
	h := HandlerWithLogs(&ViewerHandler{}, time.Second).(*handlerWithLogs)
	defer h.Close()

	h.incCounter(InputZoom)
	require.Equal(t, 1, h.counter[InputZoom])
}

func TestHandlerWithLogsLogSummary(t *testing.T) {
	testClientID := "test-client"
	h := HandlerWithLogs(&ViewerHandler{clientID: testClientID}, time.Second).(*handlerWithLogs)
	defer h.Close()

	h.incCounter(InputOrbit)
	h.incCounter(InputOrbit)
	h.incCounter(InputResize)

	var mutex sync.Mutex
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()
		fmt.Fprint(&b, e)
	})

	h.logSummary()
	require.Empty(t, h.counter)

	mutex.Lock()
	logString := b.String()
	mutex.Unlock()

	clientIDTag := fmt.Sprintf(`"%s":"%s"`, logs.ClientIDTag, testClientID)
	require.Contains(t, logString, `"orbit":2`)
	require.Contains(t, logString, `"resize":1`)
	require.Contains(t, logString, clientIDTag)
	t.Log(logString)
}

func TestHandlerWithLogsStartSummaryWorker(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once

	var mutex sync.Mutex
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()
		fmt.Fprint(&b, e)
		once.Do(wg.Done)
	})

	wg.Add(1)
	h := HandlerWithLogs(&ViewerHandler{}, time.Millisecond).(*handlerWithLogs)
	defer h.Close()

	// No summary is logged while no counter is incremented.
	h.incCounter(InputPan)

	wg.Wait()

	mutex.Lock()
	out := b.String()
	mutex.Unlock()
	require.NotEmpty(t, out)
	t.Log(out)
}

type inputsHandler struct {
	*ViewerHandler
	inputs []Input
}

func (h *inputsHandler) Receiver() Receiver {
	return func() (Input, int, error) {
		if len(h.inputs) == 0 {
			return Input{}, 0, io.EOF
		}
		in := h.inputs[0]
		h.inputs = h.inputs[1:]
		return in, 1, nil
	}
}

func TestHandlerWithLogsReceiverCountsUnknownInputs(t *testing.T) {
	h := HandlerWithLogs(&inputsHandler{
		ViewerHandler: &ViewerHandler{},
		inputs: []Input{
			{Type: InputZoom},
			{Type: "a7f3c2"},
			{Type: "b91e04"},
		},
	}, time.Minute).(*handlerWithLogs)
	defer h.Close()

	receive := h.Receiver()
	for i := 0; i < 3; i++ {
		_, _, err := receive()
		require.NoError(t, err)
	}

	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()
	require.Len(t, h.counter, 2)
	require.Equal(t, 1, h.counter[InputZoom])
	require.Equal(t, 2, h.counter[InputUnknown])
}
