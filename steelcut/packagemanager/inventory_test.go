package packagemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTable(t *testing.T) {
	out := "Name    Version   Rev   Tracking       Publisher   Notes\n" +
		"core20  20230801  2015  latest/stable  canonical✓  base\n" +
		"\n" +
		"brokenline\n" +
		"lxd     5.0.2-838e1b2   24322  5.0/stable/…  canonical✓  -\n"

	var bad []string
	rows := parseTable(out, func(line string) { bad = append(bad, line) })

	assert.Equal(t, []row{
		{name: "core20", version: "20230801"},
		{name: "lxd", version: "5.0.2-838e1b2"},
	}, rows)
	assert.Equal(t, []string{"brokenline"}, bad)
}

func TestParseTableOnlyHeader(t *testing.T) {
	assert.Empty(t, parseTable("Name  Version  Rev\n", nil))
	assert.Empty(t, parseTable("", nil))
}

func TestInventoryShapes(t *testing.T) {
	inv := Inventory{}
	inv.add("foo", "2.0")
	inv.add("foo", "1.0")
	inv.add("bar", "3")
	inv.sortVersions()

	assert.Equal(t, VersionValue{"1.0", "2.0"}, inv["foo"])
	assert.Equal(t, Inventory{"foo": {"1.0,2.0"}, "bar": {"3"}}, inv.Stringify())
	assert.Equal(t, []string{"bar", "foo"}, inv.Names())
}

func TestInventoryCopyIsDeep(t *testing.T) {
	inv := Inventory{"foo": {"1.0"}}
	cp := inv.Copy()
	cp["foo"][0] = "9.9"
	cp["bar"] = VersionValue{"1"}

	assert.Equal(t, Inventory{"foo": {"1.0"}}, inv)
}

func TestVersionValue(t *testing.T) {
	assert.True(t, VersionValue(nil).IsEmpty())
	assert.True(t, VersionValue{}.IsEmpty())
	assert.False(t, VersionValue{"1"}.IsEmpty())
	assert.Equal(t, "1,2", VersionValue{"1", "2"}.String())
}

func TestCacheLifecycle(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("snap")
	assert.False(t, ok)

	c.Set("snap", Inventory{"foo": {"1"}})
	got, ok := c.Get("snap")
	assert.True(t, ok)
	got["foo"][0] = "mutated"

	again, _ := c.Get("snap")
	assert.Equal(t, VersionValue{"1"}, again["foo"])

	c.Invalidate("snap")
	_, ok = c.Get("snap")
	assert.False(t, ok)

	var zero Cache
	zero.Set("snap", Inventory{})
	_, ok = zero.Get("snap")
	assert.True(t, ok)
}

func TestCompareInventories(t *testing.T) {
	before := Inventory{"a": {"1.0"}, "gone": {"3"}, "up": {"1"}}
	after := Inventory{"a": {"1.0"}, "b": {"2.0"}, "up": {"2"}}

	assert.Equal(t, ChangeSet{
		"b":    {Old: "", New: "2.0"},
		"gone": {Old: "3", New: ""},
		"up":   {Old: "1", New: "2"},
	}, CompareInventories(before, after))

	assert.Empty(t, CompareInventories(before, before.Copy()))
	assert.Equal(t, []string{"b", "gone", "up"}, CompareInventories(before, after).Names())
}

func TestCompareInventoriesMixedShapes(t *testing.T) {
	asList := Inventory{"a": {"1", "2"}}
	assert.Empty(t, CompareInventories(asList, asList.Stringify()))
}

func TestConfinement(t *testing.T) {
	for _, s := range []string{"jailmode", "classic", "devmode"} {
		c, err := ParseConfinement(s)
		assert.NoError(t, err)
		assert.Equal(t, "--"+s, c.Flag())
	}

	_, err := ParseConfinement("bogus")
	assert.ErrorIs(t, err, ErrInvalidConfinement)
	_, err = ParseConfinement("")
	assert.ErrorIs(t, err, ErrInvalidConfinement)
}

func TestValidatePackageName(t *testing.T) {
	assert.NoError(t, ValidatePackageName("hello-world"))
	assert.ErrorIs(t, ValidatePackageName("-x"), ErrInvalidPackageName)
	assert.ErrorIs(t, ValidatePackageName("--classic"), ErrInvalidPackageName)
	assert.ErrorIs(t, ValidatePackageName(""), ErrInvalidPackageName)
}

func TestOperationErrorMessage(t *testing.T) {
	err := &OperationError{Op: OpInstall, Name: "foo", Errors: []string{"error: cannot install"}}
	assert.Equal(t, "problem encountered installing snap foo: error: cannot install", err.Error())
}
