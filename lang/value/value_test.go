package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

func TestInternIdentity(t *testing.T) {
	c := gc.New(gc.Config{})
	tbl := value.NewTable(c)
	s1 := tbl.Intern("hello")
	s2 := tbl.Intern("hel" + "lo")
	require.True(t, s1 == s2, "equal-content strings must be the same pointer")
	require.True(t, value.Equals(value.Obj(s1), value.Obj(s2)))
}

func TestTruthiness(t *testing.T) {
	require.False(t, value.Nil.Truthy())
	require.False(t, value.Bool(false).Truthy())
	require.True(t, value.Bool(true).Truthy())
	require.True(t, value.Int(0).Truthy())
	require.True(t, value.Float(0).Truthy())
}

func TestIntWrap(t *testing.T) {
	v := value.Int((1 << 47))
	require.Equal(t, -(int64(1) << 47), v.AsInt())
}

func TestArithPromotion(t *testing.T) {
	c := gc.New(gc.Config{})
	tbl := value.NewTable(c)

	r, err := value.Add(tbl, value.Int(1), value.Float(2.5))
	require.NoError(t, err)
	require.True(t, r.IsFloat())
	require.InDelta(t, 3.5, r.AsFloat(), 1e-9)

	r2, err := value.Add(tbl, value.Int(1), value.Int(2))
	require.NoError(t, err)
	require.True(t, r2.IsInt())
	require.EqualValues(t, 3, r2.AsInt())
}

func TestStringConcat(t *testing.T) {
	c := gc.New(gc.Config{})
	tbl := value.NewTable(c)
	a := value.Obj(tbl.Intern("foo"))
	b := value.Obj(tbl.Intern("bar"))
	r, err := value.Add(tbl, a, b)
	require.NoError(t, err)
	require.Equal(t, "foobar", r.String())
}

func TestDivisionByZero(t *testing.T) {
	_, err := value.Div(value.Int(1), value.Int(0))
	require.Error(t, err)
}

func TestDivAlwaysFloat(t *testing.T) {
	r, err := value.Div(value.Int(7), value.Int(2))
	require.NoError(t, err)
	require.True(t, r.IsFloat())
	require.InDelta(t, 3.5, r.AsFloat(), 1e-9)
}

func TestArrayNegativeIndex(t *testing.T) {
	c := gc.New(gc.Config{})
	arr := value.NewArray(c, []value.Value{value.Int(1), value.Int(2), value.Int(3)})
	v, err := arr.Get(-1)
	require.NoError(t, err)
	require.EqualValues(t, 3, v.AsInt())
}

func TestDictGetMissing(t *testing.T) {
	c := gc.New(gc.Config{})
	d := value.NewDict(c, 4)
	_, ok := d.Get(value.Int(1))
	require.False(t, ok)
}

func TestCompareTypeError(t *testing.T) {
	c := gc.New(gc.Config{})
	_, err := value.Compare(value.Int(1), value.Obj(value.NewArray(c, nil)))
	require.Error(t, err)
}
