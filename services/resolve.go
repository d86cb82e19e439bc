package services

import (
	"fmt"
	"strings"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/models"

	"gorm.io/gorm"
)

// ItemRequest is one invoice line as submitted. Tax, cess and discount are picked in this order:
// explicit template id, inline value, the article's default template.
type ItemRequest struct {
	ArticleID   *string  `json:"article_id"`
	Description string   `json:"description" validate:"max=500"`
	SacCode     string   `json:"sac_code" validate:"max=8"`
	Quantity    float64  `json:"quantity" validate:"gte=0" normalize:"-"`
	Rate        *float64 `json:"rate" validate:"omitempty,gte=0"` // nil takes the article rate

	TaxTemplateID      *string `json:"tax_template_id"`
	CessTemplateID     *string `json:"cess_template_id"`
	DiscountTemplateID *string `json:"discount_template_id"`

	// Inline rates keep the precision they were sent with; only money is rounded on input.
	Tax      *calc.TaxRate  `json:"tax" normalize:"-"`
	Cess     *calc.TaxRate  `json:"cess" normalize:"-"`
	Discount *calc.Discount `json:"discount" normalize:"-"`
}

// EntryRequest is one invoice-level tax/charge or discount.
type EntryRequest struct {
	EntryType       calc.EntryType       `json:"entry_type" validate:"required,oneof=TAX DISCOUNT"`
	Name            string               `json:"name" validate:"max=64"`
	RateType        calc.RateType        `json:"rate_type" validate:"required,oneof=PERCENT AMOUNT"`
	Rate            float64              `json:"rate" validate:"gte=0" normalize:"-"`
	ApplicationMode calc.ApplicationMode `json:"application_mode" validate:"required,oneof=BEFORE_TAX AFTER_TAX"`
}

// resolvedItem is a line ready for calculation plus the descriptive fields stored alongside it.
type resolvedItem struct {
	input       calc.LineItemInput
	articleID   *string
	description string
	sacCode     string
}

// resolver looks up articles and templates once per request.
type resolver struct {
	tx            *gorm.DB
	allowArchived bool

	articles  map[string]models.Article
	taxes     map[string]models.TaxTemplate
	discounts map[string]models.DiscountTemplate
}

func newResolver(tx *gorm.DB, allowArchived bool) *resolver {
	return &resolver{
		tx:            tx,
		allowArchived: allowArchived,
		articles:      map[string]models.Article{},
		taxes:         map[string]models.TaxTemplate{},
		discounts:     map[string]models.DiscountTemplate{},
	}
}

func (r *resolver) items(reqs []ItemRequest) ([]resolvedItem, error) {
	if len(reqs) == 0 {
		return nil, ErrNoItems
	}
	out := make([]resolvedItem, 0, len(reqs))
	for i, req := range reqs {
		item, err := r.item(req)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *resolver) item(req ItemRequest) (resolvedItem, error) {
	item := resolvedItem{
		input:       calc.LineItemInput{Quantity: req.Quantity},
		description: strings.TrimSpace(req.Description),
		sacCode:     strings.TrimSpace(req.SacCode),
	}

	var article *models.Article
	if req.ArticleID != nil && *req.ArticleID != "" {
		a, err := r.article(*req.ArticleID)
		if err != nil {
			return item, err
		}
		article = &a
		id := a.Id
		item.articleID = &id
		if item.description == "" {
			item.description = a.Name
		}
		if item.sacCode == "" {
			item.sacCode = a.SacCode
		}
		item.input.Rate = a.Rate
	}
	if req.Rate != nil {
		item.input.Rate = *req.Rate
	}

	taxID, cessID, discountID := req.TaxTemplateID, req.CessTemplateID, req.DiscountTemplateID
	if article != nil {
		if taxID == nil && req.Tax == nil {
			taxID = article.DefaultTaxTemplateID
		}
		if cessID == nil && req.Cess == nil {
			cessID = article.DefaultCessTemplateID
		}
		if discountID == nil && req.Discount == nil {
			discountID = article.DefaultDiscountTemplateID
		}
	}

	var err error
	if item.input.Tax, err = r.taxRate(taxID, req.Tax, calc.TaxTypeGST, calc.TaxTypeCustom); err != nil {
		return item, err
	}
	if item.input.Cess, err = r.taxRate(cessID, req.Cess, calc.TaxTypeCess); err != nil {
		return item, err
	}
	if item.input.Discount, err = r.discount(discountID, req.Discount); err != nil {
		return item, err
	}
	return item, nil
}

// taxRate returns a detached snapshot of the selected template, or a copy of the inline rate.
// Inline rates never carry a template id.
func (r *resolver) taxRate(id *string, inline *calc.TaxRate, allowed ...calc.TaxType) (*calc.TaxRate, error) {
	if id != nil && *id != "" {
		t, err := r.taxTemplate(*id)
		if err != nil {
			return nil, err
		}
		if !taxTypeIn(t.TaxType, allowed) {
			return nil, fmt.Errorf("%w: %s template %q", ErrTemplateKind, t.TaxType, t.Name)
		}
		snap := t.Snapshot()
		return &snap, nil
	}
	if inline == nil {
		return nil, nil
	}
	cp := *inline
	cp.TemplateID = nil
	cp.Name = strings.TrimSpace(cp.Name)
	if cp.TaxType != "" && !taxTypeIn(cp.TaxType, allowed) {
		return nil, fmt.Errorf("%w: inline %s rate", ErrTemplateKind, cp.TaxType)
	}
	if cp.TaxType == "" && taxTypeIn(calc.TaxTypeCess, allowed) {
		cp.TaxType = calc.TaxTypeCess
	}
	if cp.RateType == "" {
		cp.RateType = calc.RateTypePercent
	}
	if !cp.RateType.Valid() {
		return nil, fmt.Errorf("%w: inline rate_type %q", ErrInvalidTemplate, cp.RateType)
	}
	if cp.RateType == calc.RateTypeAmount && cp.TaxType != calc.TaxTypeCustom {
		return nil, fmt.Errorf("%w: only CUSTOM rates can be AMOUNT", ErrInvalidTemplate)
	}
	return &cp, nil
}

func (r *resolver) discount(id *string, inline *calc.Discount) (*calc.Discount, error) {
	if id != nil && *id != "" {
		d, ok := r.discounts[*id]
		if !ok {
			if err := r.tx.Where("id = ?", *id).First(&d).Error; err != nil {
				return nil, notFound(err, ErrTemplateNotFound)
			}
			r.discounts[*id] = d
		}
		if !d.IsActive && !r.allowArchived {
			return nil, fmt.Errorf("%w: %q", ErrTemplateInactive, d.Name)
		}
		snap := d.Snapshot()
		return &snap, nil
	}
	if inline == nil {
		return nil, nil
	}
	cp := *inline
	cp.TemplateID = nil
	cp.Name = strings.TrimSpace(cp.Name)
	if !cp.Type.Valid() {
		return nil, fmt.Errorf("%w: inline discount type %q", ErrInvalidTemplate, cp.Type)
	}
	return &cp, nil
}

func (r *resolver) article(id string) (models.Article, error) {
	if a, ok := r.articles[id]; ok {
		return a, nil
	}
	var a models.Article
	if err := r.tx.Where("id = ?", id).First(&a).Error; err != nil {
		return a, notFound(err, ErrArticleNotFound)
	}
	r.articles[id] = a
	return a, nil
}

func (r *resolver) taxTemplate(id string) (models.TaxTemplate, error) {
	t, ok := r.taxes[id]
	if !ok {
		if err := r.tx.Where("id = ?", id).First(&t).Error; err != nil {
			return t, notFound(err, ErrTemplateNotFound)
		}
		r.taxes[id] = t
	}
	if !t.IsActive && !r.allowArchived {
		return t, fmt.Errorf("%w: %q", ErrTemplateInactive, t.Name)
	}
	return t, nil
}

func taxTypeIn(t calc.TaxType, allowed []calc.TaxType) bool {
	for _, a := range allowed {
		if t == a {
			return true
		}
	}
	return false
}

func entryInputs(reqs []EntryRequest) ([]calc.InvoiceTaxDiscountEntry, error) {
	out := make([]calc.InvoiceTaxDiscountEntry, 0, len(reqs))
	for i, e := range reqs {
		if !e.EntryType.Valid() || !e.RateType.Valid() || !e.ApplicationMode.Valid() {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidEntry, i)
		}
		out = append(out, calc.InvoiceTaxDiscountEntry{
			EntryType:       e.EntryType,
			Name:            strings.TrimSpace(e.Name),
			RateType:        e.RateType,
			Rate:            e.Rate,
			ApplicationMode: e.ApplicationMode,
			SortOrder:       i,
		})
	}
	return out, nil
}
