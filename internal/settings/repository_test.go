package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// fakeLoader serves rows per prefix and counts the queries it receives.
type fakeLoader struct {
	rows    map[string][]models.RawRow
	err     error
	queries []string
}

func (f *fakeLoader) LoadRows(_ context.Context, prefix string) ([]models.RawRow, error) {
	f.queries = append(f.queries, prefix)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[prefix], nil
}

func newRepo(t *testing.T, rows ...models.RawRow) *Repository {
	t.Helper()
	loader := &fakeLoader{rows: map[string][]models.RawRow{"xwc_settings_": rows}}
	repo, err := New(context.Background(), loader, Groups{Page: "xwc"})
	require.NoError(t, err)
	return repo
}

func TestNewRequiresAGroup(t *testing.T) {
	_, err := New(context.Background(), &fakeLoader{}, Groups{})
	assert.ErrorIs(t, err, ErrNoGroups)
}

func TestNewQueriesEachGroupOnce(t *testing.T) {
	loader := &fakeLoader{}
	_, err := New(context.Background(), loader, Groups{Page: "shop", API: "xwc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop_settings_", "xwc_api_settings_"}, loader.queries)
}

func TestNewPropagatesStoreErrors(t *testing.T) {
	boom := errors.Base("connection refused")
	_, err := New(context.Background(), &fakeLoader{err: boom}, Groups{API: "xwc"})
	assert.ErrorIs(t, err, boom)
}

func TestEmptyStoreGivesEmptyTree(t *testing.T) {
	repo := newRepo(t)
	assert.Empty(t, repo.All())
	assert.False(t, repo.Has("anything"))
}

func TestEndToEndCheckoutRows(t *testing.T) {
	repo := newRepo(t,
		models.RawRow{Section: "checkout--title", Options: "Cash on Delivery"},
		models.RawRow{Section: "checkout--enabled", Options: "yes"},
	)

	assert.Equal(t, true, repo.Get("checkout.enabled", nil))
	assert.Equal(t, "Cash on Delivery", repo.Get("checkout.title", nil))
	assert.Equal(t, Branch{
		"checkout": Branch{
			"enabled": Leaf{Value: true},
			"title":   Leaf{Value: "Cash on Delivery"},
		},
	}, repo.All())
}

func TestDoubleDashGrouping(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "api--flat_rate", Options: "X"})

	assert.Equal(t, Branch{"api": Branch{"flat_rate": Leaf{Value: "X"}}}, repo.All())
}

func TestCompoundKeySplitsBelowTopLevel(t *testing.T) {
	payload := codec.NewArray()
	payload.Set("shipping-methods", "flat")
	payload.Set("free_shipping", "no")

	repo := newRepo(t, models.RawRow{Section: "checkout", Options: codec.Serialize(payload)})

	assert.Equal(t, "flat", repo.Get("checkout.shipping.methods", nil))
	assert.False(t, repo.Has("checkout.shipping-methods"))
	assert.Equal(t, false, repo.Get("checkout.free_shipping", nil))
}

func TestCompoundKeyAtTopLevelStaysFlat(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "shipping-methods", Options: "flat"})

	assert.Equal(t, "flat", repo.Get("shipping-methods", nil))
	assert.False(t, repo.Has("shipping"))
}

func TestUnderscoredCompoundKey(t *testing.T) {
	payload := codec.NewArray()
	payload.Set("shipping_-_methods", "1")

	repo := newRepo(t, models.RawRow{Section: "checkout", Options: codec.Serialize(payload)})

	assert.Equal(t, true, repo.Get("checkout.shipping.methods", nil))
}

func TestListPayloadStaysStructured(t *testing.T) {
	list := codec.ArrayOf("a", "b")
	repo := newRepo(t, models.RawRow{Section: "general--rows", Options: codec.Serialize(list)})

	got, ok := repo.Get("general.rows", nil).(*codec.Array)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, got.Values())
}

func TestRowsAreOrderIndependent(t *testing.T) {
	rows := []models.RawRow{
		{Section: "a", Options: "scalar"},
		{Section: "a--b", Options: "nested"},
		{Section: "c--d", Options: "1"},
	}
	reversed := []models.RawRow{rows[2], rows[1], rows[0]}

	forward := newRepo(t, rows...)
	assert.Equal(t, forward.All(), newRepo(t, reversed...).All())

	// The group replaces the scalar of the same name.
	assert.Equal(t, "nested", forward.Get("a.b", nil))
	assert.IsType(t, Branch{}, forward.Get("a", nil))
}

func TestOversizedSerializedLengthStaysRaw(t *testing.T) {
	raw := `s:9223372036854775807:"x";`
	repo := newRepo(t,
		models.RawRow{Section: "general--title", Options: raw},
		models.RawRow{Section: "general--rows", Options: `a:9223372036854775807:{}`},
	)

	assert.Equal(t, raw, repo.Get("general.title", nil))
	assert.Equal(t, `a:9223372036854775807:{}`, repo.Get("general.rows", nil))
}

func TestGetDescendsIntoStructuredLeaves(t *testing.T) {
	items := codec.ArrayOf(map[string]any{"x": "first"}, map[string]any{"x": "second"})
	repo := newRepo(t,
		models.RawRow{Section: "general--rows", Options: codec.Serialize(codec.ArrayOf("a", "b"))},
		models.RawRow{Section: "general--items", Options: codec.Serialize(items)},
	)

	assert.Equal(t, "a", repo.Get("general.rows.0", nil))
	assert.Equal(t, "b", repo.Get("general.rows.1", nil))
	assert.True(t, repo.Has("general.rows.0"))
	assert.False(t, repo.Has("general.rows.2"))
	assert.Equal(t, "second", repo.Get("general.items.1.x", nil))
	assert.Equal(t, "fallback", repo.Get("general.items.0.missing", "fallback"))
	assert.Equal(t, "fallback", repo.Get("general.rows.0.deeper", "fallback"))
}

func TestDuplicateRowsDoNotAccumulate(t *testing.T) {
	row := models.RawRow{Section: "general--count", Options: "3"}
	once := newRepo(t, row)
	twice := newRepo(t, row, row)

	assert.Equal(t, once.All(), twice.All())
	assert.Equal(t, int64(3), twice.Get("general.count", nil))
}

func TestPageAndAPIGroupsShareTheTree(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.RawRow{
		"shop_settings_":    {{Section: "core", Options: codec.Serialize(map[string]any{"currency": "EUR"})}},
		"xwc_api_settings_": {{Section: "gateway--enabled", Options: "on"}},
	}}
	repo, err := New(context.Background(), loader, Groups{Page: "shop", API: "xwc"})
	require.NoError(t, err)

	assert.Equal(t, "EUR", repo.Get("core.currency", nil))
	assert.Equal(t, true, repo.Get("gateway.enabled", nil))
}

func TestGetReturnsDefaultForMissingPaths(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "general--title", Options: "Shop"})

	for _, path := range []string{"missing", "general.missing", "general.title.deeper", "x.y.z"} {
		assert.Equal(t, "fallback", repo.Get(path, "fallback"), path)
		assert.False(t, repo.Has(path), path)
	}
}

func TestGetIgnoresEmptySegments(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "general--title", Options: "Shop"})

	assert.Equal(t, "Shop", repo.Get("general..title", nil))
	assert.Equal(t, "Shop", repo.Get(".general.title.", nil))
}

func TestGetReturnsBranchForGroups(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "general--title", Options: "Shop"})

	got, ok := repo.Get("general", nil).(Branch)
	require.True(t, ok)
	assert.Equal(t, Leaf{Value: "Shop"}, got["title"])
}

func TestSetThenGet(t *testing.T) {
	repo := newRepo(t)

	require.NoError(t, repo.Set("a.b.c", 42))
	assert.Equal(t, 42, repo.Get("a.b.c", "other"))
	assert.True(t, repo.Has("a.b.c"))
	assert.True(t, repo.Has("a.b"))
}

func TestSetIsIdempotent(t *testing.T) {
	once := newRepo(t)
	twice := newRepo(t)

	require.NoError(t, once.Set("x.y", "v"))
	require.NoError(t, twice.Set("x.y", "v"))
	require.NoError(t, twice.Set("x.y", "v"))

	assert.Equal(t, once.All(), twice.All())
}

func TestSetNilIsStillPresent(t *testing.T) {
	repo := newRepo(t)

	require.NoError(t, repo.Set("x", nil))
	assert.True(t, repo.Has("x"))
	assert.Nil(t, repo.Get("x", "default"))
}

func TestSetOverwritesGroupAtLastSegment(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "general--title", Options: "Shop"})

	require.NoError(t, repo.Set("general", "flat"))
	assert.Equal(t, "flat", repo.Get("general", nil))
	assert.False(t, repo.Has("general.title"))
}

func TestSetNilBranchCanBeExtended(t *testing.T) {
	repo := newRepo(t)

	require.NoError(t, repo.Set("a", Branch(nil)))
	require.NoError(t, repo.Set("a.b", 1))
	assert.Equal(t, 1, repo.Get("a.b", nil))
}

func TestSetCopiesBranch(t *testing.T) {
	repo := newRepo(t)
	group := Branch{"title": Leaf{Value: "Shop"}}

	require.NoError(t, repo.Set("general", group))
	group["title"] = Leaf{Value: "changed"}
	group["extra"] = Leaf{Value: 1}

	assert.Equal(t, "Shop", repo.Get("general.title", nil))
	assert.False(t, repo.Has("general.extra"))

	require.NoError(t, repo.Set("general.more", 2))
	_, leaked := group["more"]
	assert.False(t, leaked)
}

func TestSetDoesNotCoerce(t *testing.T) {
	repo := newRepo(t)

	require.NoError(t, repo.Set("flag", "yes"))
	assert.Equal(t, "yes", repo.Get("flag", nil))
}

func TestSetThroughLeafFails(t *testing.T) {
	repo := newRepo(t, models.RawRow{Section: "general--title", Options: "Shop"})

	err := repo.Set("general.title.sub", "x")
	assert.ErrorIs(t, err, ErrShapeConflict)
	assert.Equal(t, "Shop", repo.Get("general.title", nil))
}

func TestSetEmptyPath(t *testing.T) {
	repo := newRepo(t)
	assert.ErrorIs(t, repo.Set("..", 1), ErrEmptyPath)
}

func TestReloadReplacesTree(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.RawRow{
		"xwc_settings_": {{Section: "general--title", Options: "Old"}},
	}}
	repo, err := New(context.Background(), loader, Groups{Page: "xwc"})
	require.NoError(t, err)
	require.NoError(t, repo.Set("transient", true))

	loader.rows["xwc_settings_"] = []models.RawRow{{Section: "general--title", Options: "New"}}
	require.NoError(t, repo.Reload(context.Background()))

	assert.Equal(t, "New", repo.Get("general.title", nil))
	assert.False(t, repo.Has("transient"))
}

func TestReloadKeepsTreeOnFailure(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.RawRow{
		"xwc_settings_": {{Section: "general--title", Options: "Old"}},
	}}
	repo, err := New(context.Background(), loader, Groups{Page: "xwc"})
	require.NoError(t, err)

	loader.err = errors.Base("gone")
	assert.Error(t, repo.Reload(context.Background()))
	assert.Equal(t, "Old", repo.Get("general.title", nil))
}

func TestDefaultsSitUnderLoadedValues(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.RawRow{
		"xwc_settings_": {{Section: "general--title", Options: "Loaded"}},
	}}
	defaults := Branch{
		"general": Branch{
			"title": Leaf{Value: "Default"},
			"color": Leaf{Value: "blue"},
		},
	}
	repo, err := New(context.Background(), loader, Groups{Page: "xwc"}, WithDefaults(defaults))
	require.NoError(t, err)

	assert.Equal(t, "Loaded", repo.Get("general.title", nil))
	assert.Equal(t, "blue", repo.Get("general.color", nil))

	require.NoError(t, repo.Set("general.color", "red"))
	assert.Equal(t, Leaf{Value: "blue"}, defaults["general"].(Branch)["color"])
}

func TestJSONFormat(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.RawRow{
		"xwc_settings_": {{Section: "checkout", Options: `{"enabled":"yes","fees":{"cod":"2.5"}}`}},
	}}
	repo, err := New(context.Background(), loader, Groups{Page: "xwc"}, WithFormat(codec.FormatJSON))
	require.NoError(t, err)

	assert.Equal(t, true, repo.Get("checkout.enabled", nil))
	assert.Equal(t, 2.5, repo.Get("checkout.fees.cod", nil))
}

func TestSetting(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, repo.Set("enabled", "yes"))
	require.NoError(t, repo.Set("debug", "no"))
	require.NoError(t, repo.Set("title", "COD"))

	assert.Equal(t, true, Setting(repo, "enabled"))
	assert.Equal(t, false, Setting(repo, "debug"))
	assert.Equal(t, "COD", Setting(repo, "title"))
	assert.Nil(t, Setting(repo, "missing"))
}
