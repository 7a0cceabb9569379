package tag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
)

func TestTagRoundTrip(t *testing.T) {
	tagger, err := commit.NewPerson("Rel Eng", "rel@example.com", time.Unix(1700000000, 0).UTC())
	require.NoError(t, err)
	target := objects.SHA1.Sum([]byte("commit"))

	orig, err := New(target, objects.CommitType, "v1.0.0", tagger, "release 1.0\n")
	require.NoError(t, err)

	content, err := orig.Content()
	require.NoError(t, err)
	assert.Contains(t, string(content), "tagger Rel Eng <rel@example.com> 1700000000 +0000\n")

	parsed, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, target, parsed.Object)
	assert.Equal(t, objects.CommitType, parsed.ObjectType)
	assert.Equal(t, "v1.0.0", parsed.Name)
	assert.Equal(t, "release 1.0\n", parsed.Message)
	assert.True(t, tagger.Equal(parsed.Tagger))
}

func TestTagValidation(t *testing.T) {
	target := objects.SHA1.Sum([]byte("x"))
	_, err := New(target, objects.ObjectType("bogus"), "v1", nil, "")
	assert.Error(t, err)
	_, err = New(target, objects.CommitType, "", nil, "")
	assert.Error(t, err)
	_, err = New("abc", objects.CommitType, "v1", nil, "")
	assert.Error(t, err)

	_, err = Parse([]byte("object " + target.String() + "\ntype commit\ntag v1\nweird x\n\n"))
	assert.Error(t, err)
}
