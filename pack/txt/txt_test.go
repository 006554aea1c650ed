package txt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toslib/tos_browser/pack"
)

type src string

func (s src) Name() string { return string(s) }
func (s src) Size() int64  { return 0 }

func TestLoad(t *testing.T) {
	tx, err := Load(src("skill.xml"), strings.NewReader("<Skill Name=\"Heal\"/>"))
	require.NoError(t, err)
	assert.Equal(t, "skill.xml", tx.Name)
	assert.Equal(t, "<Skill Name=\"Heal\"/>", tx.Text)
}

func TestRegistered(t *testing.T) {
	assert.True(t, pack.HaveHandler("ui/skin/main.xml"))
	assert.True(t, pack.HaveHandler("script/quest.LUA"))
	assert.False(t, pack.HaveHandler("char_hi/pc/warrior.xac"))
}
