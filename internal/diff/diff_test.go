package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `diff --git a/config/app.env b/config/app.env
index 1111111..2222222 100644
--- a/config/app.env
+++ b/config/app.env
@@ -1,3 +1,4 @@
 APP_NAME=demo
-APP_DEBUG=true
+APP_DEBUG=false
+AWS_SECRET_ACCESS_KEY=AKIA1234567890EXAMPLE
 APP_PORT=8080
diff --git a/README.md b/README.md
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/README.md
@@ -0,0 +1,2 @@
+# demo
+hello
`

func TestParse(t *testing.T) {
	lines, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []Line{
		{Path: "config/app.env", Number: 2, Text: "APP_DEBUG=false"},
		{Path: "config/app.env", Number: 3, Text: "AWS_SECRET_ACCESS_KEY=AKIA1234567890EXAMPLE"},
		{Path: "README.md", Number: 1, Text: "# demo"},
		{Path: "README.md", Number: 2, Text: "hello"},
	}, lines)
}

func TestParse_Empty(t *testing.T) {
	lines, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFromText(t *testing.T) {
	lines, err := FromText("a.txt", strings.NewReader("one\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Path: "a.txt", Number: 1, Text: "one"},
		{Path: "a.txt", Number: 2, Text: "two"},
	}, lines)
}
