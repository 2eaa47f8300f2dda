package suppress_test

import (
	"testing"

	"github.com/reap-dev/reap/internal/suppress"
	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/stretchr/testify/assert"
)

func matcher(t *testing.T, src string) *suppress.Matcher {
	t.Helper()
	buf := source.New("test.py", []byte(src))
	toks, _ := lexer.Tokenize(buf)
	return suppress.New(buf, toks)
}

func TestBareNoqaSuppressesAllRules(t *testing.T) {
	m := matcher(t, "import os  # noqa\nimport sys\n")
	assert.True(t, m.Suppressed(1, "RP001"))
	assert.True(t, m.Suppressed(1, "RP007"))
	assert.False(t, m.Suppressed(2, "RP001"))
}

func TestCodeListSuppressesOnlyListed(t *testing.T) {
	m := matcher(t, "import os  # noqa: RP001, RP007\n")
	assert.True(t, m.Suppressed(1, "RP001"))
	assert.True(t, m.Suppressed(1, "RP007"))
	assert.False(t, m.Suppressed(1, "RP002"))
}

func TestCaseInsensitiveDirective(t *testing.T) {
	m := matcher(t, "import os  # NOQA: rp001\n")
	assert.True(t, m.Suppressed(1, "RP001"))
}

func TestContinuationLineCoversLogicalLine(t *testing.T) {
	src := "result = frobnicate(\n    alpha,\n    beta,  # noqa: RP002\n)\n"
	m := matcher(t, src)
	for line := 1; line <= 4; line++ {
		assert.True(t, m.Suppressed(line, "RP002"), "line %d", line)
	}
	assert.False(t, m.Suppressed(1, "RP001"))
}

func TestStandaloneCommentCoversOwnLineOnly(t *testing.T) {
	m := matcher(t, "# noqa\nimport os\n")
	assert.True(t, m.Suppressed(1, "RP001"))
	assert.False(t, m.Suppressed(2, "RP001"))
}

func TestMalformedDirectivesIgnored(t *testing.T) {
	m := matcher(t, "import os  # noqa this is prose\nimport sys  # noqa:\n")
	assert.False(t, m.Suppressed(1, "RP001"), "prose after noqa is not a directive")
	assert.False(t, m.Suppressed(2, "RP001"), "an empty code list suppresses nothing")
}

func TestOrdinaryCommentIsNotADirective(t *testing.T) {
	m := matcher(t, "import os  # used later, honest\n")
	assert.False(t, m.Suppressed(1, "RP001"))
}
