package tests_test

import (
	"fmt"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

const (
	tracebackLog = `2024-01-01 10:00:00 INFO starting
Traceback (most recent call last):
  File "app.py", line 10, in <module>
    main()
ValueError: bad input
2024-01-01 10:00:02 INFO recovered
`

	cleanLog = `2024-01-01 10:00:00 INFO starting
2024-01-01 10:00:01 INFO listening on :8080
2024-01-01 10:00:02 INFO stopped
`

	// The error block is never closed: it only surfaces when flushed.
	truncatedLog = `2024-01-01 10:00:00 ERROR Connection refused
    at com.example.Db.connect(Db.java:42)
`

	rulesFile = `[[family]]
name = "panic"
kind = "crash"
severity = "critical"
start = '^panic:'
end = '^exit status'
`

	panicLog = `panic: runtime error: index out of range
goroutine 1 [running]:
exit status 2
`
)

// withLog saves content as a log file in the test temp directory and records its path under the "file" label.
func withLog(name, content string) func(data test.Data, helpers test.Helpers) {
	return func(data test.Data, _ test.Helpers) {
		data.Labels().Set("file", data.Temp().Save(content, name))
	}
}

// expectContains returns a comparator verifying the output contains every given substring.
func expectContains(substrs ...string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for _, substr := range substrs {
			if !strings.Contains(stdout, substr) {
				testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
				testing.Fail()
			}
		}
	}
}

// expectNotContains returns a comparator verifying the output does not contain a substring.
func expectNotContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("unexpected substring %q found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}
