package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

func customTemplate(name string) entity.Template {
	return entity.Template{
		Name: name,
		Type: constants.TemplateTypeCustom,
		Fields: []entity.Field{
			{Name: "title", Type: constants.FieldTypeText, Required: true},
		},
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(customTemplate("shipping-label")))

	tpl, err := r.GetByName("shipping-label")
	require.NoError(t, err)
	assert.Equal(t, "shipping-label", tpl.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(customTemplate("shipping-label")))

	err := r.Register(customTemplate("shipping-label"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTemplate)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_InvalidTemplateRejected(t *testing.T) {
	r := NewRegistry()
	bad := customTemplate("bad")
	bad.Fields = nil
	assert.ErrorIs(t, r.Register(bad), common.ErrInvalidTemplate)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_UnknownNameListsAvailable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(customTemplate("alpha")))
	require.NoError(t, r.Register(customTemplate("beta")))

	_, err := r.GetByName("gamma")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "beta")
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(customTemplate("alpha")))
	require.NoError(t, r.Unregister("alpha"))
	assert.ErrorIs(t, r.Unregister("alpha"), common.ErrTemplateNotFound)

	_, err := r.GetByName("alpha")
	assert.Error(t, err)
}

func TestRegistry_GetByType(t *testing.T) {
	r := NewDefaultRegistry()
	require.NoError(t, r.Register(customTemplate("zeta")))

	accessories := r.GetByType(constants.TemplateTypeAccessory)
	require.Len(t, accessories, 1)
	assert.Equal(t, "accessory-label", accessories[0].Name)

	assert.Empty(t, r.GetByType(constants.TemplateTypeInvoice))
}

func TestBuiltinTemplates(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"accessory-label", "purchase-order"}, r.Names())

	for _, tpl := range r.GetAll() {
		assert.NoError(t, tpl.Validate(), tpl.Name)
	}

	label, err := r.GetByName("accessory-label")
	require.NoError(t, err)
	barcode, ok := label.Field("barcode")
	require.True(t, ok)
	assert.True(t, barcode.Required)
	assert.True(t, barcode.Critical)

	order, err := r.GetByName("purchase-order")
	require.NoError(t, err)
	items, ok := order.Field("line_items")
	require.True(t, ok)
	assert.Equal(t, constants.FieldTypeTable, items.Type)
}
