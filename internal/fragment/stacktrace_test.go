package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const javaTrace = `java.lang.IllegalStateException: queue closed
	at com.acme.queue.Queue.push(Queue.java:88)
	at com.acme.worker.Worker.run(Worker.java:31)
	at java.base/java.lang.Thread.run(Thread.java:833)`

const pythonTrace = `Traceback (most recent call last):
  File "app.py", line 12, in main
    run()
  File "runner.py", line 44, in run
    raise ValueError("bad input")
ValueError: bad input`

func TestParseStackTrace_Java(t *testing.T) {
	exception, frames, ok := ParseStackTrace(javaTrace)

	require.True(t, ok)
	assert.Equal(t, "java.lang.IllegalStateException", exception)
	require.Len(t, frames, 3)
	assert.Equal(t, "Queue.java:88", frames[0].Location)
}

func TestParseStackTrace_Python(t *testing.T) {
	exception, frames, ok := ParseStackTrace(pythonTrace)

	require.True(t, ok)
	assert.NotEmpty(t, exception)
	require.Len(t, frames, 2)
	assert.Equal(t, "app.py", frames[0].Location)
}

func TestParseStackTrace_ProseRejected(t *testing.T) {
	_, _, ok := ParseStackTrace("just a paragraph of ordinary text\nwith two lines")
	assert.False(t, ok)
}

func TestParseStackTrace_SingleFrameRejected(t *testing.T) {
	_, _, ok := ParseStackTrace("Error: x\n\tat com.acme.One.only(One.java:1)")
	assert.False(t, ok)
}

func TestParseStackTrace_CausedByHeader(t *testing.T) {
	trace := `Caused by: com.acme.ConfigError: missing key
	at com.acme.Config.load(Config.java:10)
	at com.acme.Main.main(Main.java:5)`

	exception, _, ok := ParseStackTrace(trace)

	require.True(t, ok)
	assert.Equal(t, "com.acme.ConfigError", exception)
}

func TestParseStackTrace_ThreadPreamble(t *testing.T) {
	trace := `Exception in thread "main" java.lang.NullPointerException
	at com.acme.App.start(App.java:20)
	at com.acme.App.main(App.java:9)`

	exception, _, ok := ParseStackTrace(trace)

	require.True(t, ok)
	assert.Equal(t, "java.lang.NullPointerException", exception)
}

func TestParseStackTrace_EmptyHeader(t *testing.T) {
	trace := `	at com.acme.A.b(A.java:1)
	at com.acme.C.d(C.java:2)`

	exception, _, ok := ParseStackTrace(trace)

	require.True(t, ok)
	assert.Equal(t, "unknown exception", exception)
}
