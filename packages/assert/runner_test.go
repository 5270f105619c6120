package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/script"
)

func testContext(status int, body string) *script.Context {
	return &script.Context{
		Request: &model.ResolvedRequest{
			Method: model.MethodGet,
			URL:    "https://api.example.com/users/1",
		},
		Response: &httpx.Response{
			StatusCode: status,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(body),
			Duration:   12 * time.Millisecond,
		},
		Env: script.MapEnv{},
	}
}

func TestRunTestsEmptyScript(t *testing.T) {
	report := RunTests("", testContext(200, `{}`))
	assert.Empty(t, report.Entries)
	assert.True(t, report.Passed())
}

func TestRunTestsStatusEquality(t *testing.T) {
	ctx := testContext(201, `{}`)

	report := RunTests(`test "status ok" status == 200`, ctx)

	require.Len(t, report.Entries, 1)
	entry := report.Entries[0]
	assert.Equal(t, "status ok", entry.Name)
	assert.False(t, entry.Passed)
	assert.Contains(t, entry.Message, "expected 200")
}

func TestRunTestsPassingSuite(t *testing.T) {
	ctx := testContext(200, `{"id":7,"name":"ada","tags":["a","b"]}`)

	src := `
test "status" status == 200
test "fast" duration < 5000
test "json" header Content-Type contains "application/json"
test "id" body.id == 7
test "name" body.name == "ada"
test "id present" body.id exists
test "no error field" body.error !exists
test "name type" body.name type string
test "tags type" body.tags type array
test "name pattern" body.name matches "^a"
`
	report := RunTests(src, ctx)

	require.Len(t, report.Entries, 10)
	for _, e := range report.Entries {
		assert.True(t, e.Passed, "%s: %s", e.Name, e.Message)
	}
}

func TestRunTestsHeaderPresence(t *testing.T) {
	ctx := testContext(200, `{}`)

	report := RunTests(`test "has etag" header ETag exists`, ctx)

	require.Len(t, report.Entries, 1)
	assert.False(t, report.Entries[0].Passed)
	assert.Contains(t, report.Entries[0].Message, "expected to exist")
}

func TestRunTestsSchemaShape(t *testing.T) {
	ctx := testContext(200, `{"id":7,"name":"ada"}`)

	src := `test "shape" body schema {"type":"object","required":["id","name"]}
test "bad shape" body schema {"type":"object","required":["missing"]}`
	report := RunTests(src, ctx)

	require.Len(t, report.Entries, 2)
	assert.True(t, report.Entries[0].Passed, report.Entries[0].Message)
	assert.False(t, report.Entries[1].Passed)
	assert.Contains(t, report.Entries[1].Message, "schema validation failed")
}

func TestRunTestsIsolationAcrossAssertions(t *testing.T) {
	ctx := testContext(200, `{"id":7}`)

	src := `test "broken" body.id bogusop 1
test "still runs" body.id == 7`
	report := RunTests(src, ctx)

	require.Len(t, report.Entries, 2)
	assert.False(t, report.Entries[0].Passed)
	assert.Contains(t, report.Entries[0].Message, "unknown operator")
	assert.True(t, report.Entries[1].Passed, report.Entries[1].Message)
}

func TestRunTestsMalformedLine(t *testing.T) {
	ctx := testContext(200, `{}`)

	report := RunTests(`check status 200`, ctx)

	require.Len(t, report.Entries, 1)
	assert.False(t, report.Entries[0].Passed)
	assert.Contains(t, report.Entries[0].Message, "expected 'test")
}

func TestRunTestsMissingBodyField(t *testing.T) {
	ctx := testContext(200, `{"id":7}`)

	src := `test "absent" body.nope exists
test "absent ok" body.nope !exists
test "absent eq" body.nope == 1`
	report := RunTests(src, ctx)

	require.Len(t, report.Entries, 3)
	assert.False(t, report.Entries[0].Passed)
	assert.True(t, report.Entries[1].Passed)
	assert.False(t, report.Entries[2].Passed)
	assert.Contains(t, report.Entries[2].Message, "body path not found")
}

func TestReportFailedCount(t *testing.T) {
	ctx := testContext(404, `{}`)

	src := `test "a" status == 200
test "b" status == 404`
	report := RunTests(src, ctx)

	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.Passed())
}
