package template

import (
	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

// BuiltinTemplates returns the templates shipped with the engine. Callers
// get fresh copies so registered templates cannot be mutated from outside.
func BuiltinTemplates() []entity.Template {
	return []entity.Template{
		accessoryLabelTemplate(),
		purchaseOrderTemplate(),
	}
}

func accessoryLabelTemplate() entity.Template {
	return entity.Template{
		Name: "accessory-label",
		Type: constants.TemplateTypeAccessory,
		Fields: []entity.Field{
			{
				Name:        "product_name",
				Type:        constants.FieldTypeText,
				Description: "full product name as printed on the label, including brand",
				Required:    true,
				Critical:    true,
			},
			{
				Name:              "barcode",
				Type:              constants.FieldTypeBarcode,
				Description:       "EAN or UPC barcode digits printed under the bars",
				Required:          true,
				Critical:          true,
				ValidationPattern: `^\d{8,14}$`,
			},
			{
				Name:        "price",
				Type:        constants.FieldTypePrice,
				Description: "retail price, numeric, without currency symbol",
			},
			{
				Name:        "color",
				Type:        constants.FieldTypeText,
				Description: "color of the accessory if printed",
			},
			{
				Name:        "material",
				Type:        constants.FieldTypeText,
				Description: "material, e.g. silicone, leather, TPU",
			},
			{
				Name:        "compatible_with",
				Type:        constants.FieldTypeText,
				Description: "device models this accessory fits",
			},
		},
		Prompt: "You are reading a retail accessory label. Extract the fields exactly as printed.",
	}
}

func purchaseOrderTemplate() entity.Template {
	zero := 0.0
	return entity.Template{
		Name: "purchase-order",
		Type: constants.TemplateTypeOrder,
		Fields: []entity.Field{
			{
				Name:        "order_number",
				Type:        constants.FieldTypeText,
				Description: "purchase order reference number",
				Required:    true,
				Critical:    true,
			},
			{
				Name:        "order_date",
				Type:        constants.FieldTypeDate,
				Description: "order date in YYYY-MM-DD format",
				Required:    true,
			},
			{
				Name:        "supplier",
				Type:        constants.FieldTypeText,
				Description: "supplier or vendor name",
			},
			{
				Name:        "line_items",
				Type:        constants.FieldTypeTable,
				Description: "ordered items, one row per line with description, quantity and unit price",
				Required:    true,
			},
			{
				Name:        "total",
				Type:        constants.FieldTypePrice,
				Description: "grand total of the order",
				Min:         &zero,
			},
			{
				Name:        "currency",
				Type:        constants.FieldTypeCategory,
				Description: "three-letter currency code",
				AllowedValues: []string{
					"USD", "EUR", "GBP", "NGN", "CAD",
				},
			},
		},
		Prompt: "You are reading a purchase order document. Extract the fields exactly as written, including every line item.",
	}
}
