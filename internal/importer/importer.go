package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// ContentWriter stores the per-product content keys (stock, discounts, payment price ids).
type ContentWriter interface {
	Upsert(ctx context.Context, key, value string) error
}

// Kind is the type of rows a CSV file carries.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

// CSVImporter reads catalog CSV files and upserts products, categories and content keys.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	content    ContentWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, content ContentWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		content:    content,
	}
}

// DetectKind peeks at the header row. Product files carry a price column.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read headers: %w", err)
	}
	headers, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("parse headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["key"]; ok {
		return KindCategories, nil
	}
	return "", fmt.Errorf("unrecognised csv headers %v", headers)
}

type productRow struct {
	ID                 string
	Title              string
	Description        string
	Price              decimal.Decimal
	ImageURL           string
	Category           string
	Stock              string
	DiscountPrice      string
	DiscountPercentage string
	StripePriceID      string
}

// Run imports every row and returns the number of products or categories written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; !ok {
		return i.runCategories(ctx, index)
	}

	var (
		imported int
		seenCats []string
	)
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseProductRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}

		if row.Category != "" && !slices.Contains(seenCats, row.Category) && i.categories != nil {
			if _, err := i.categories.Upsert(ctx, domain.Category{Key: row.Category, Name: titleCase(row.Category)}); err != nil {
				return imported, fmt.Errorf("upsert category %q: %w", row.Category, err)
			}
			seenCats = append(seenCats, row.Category)
		}
		if err := i.saveProduct(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	if i.categories == nil {
		return 0, errors.New("category writer not configured")
	}
	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		key := pick(record, index, "key")
		if key == "" {
			continue
		}
		name := pick(record, index, "name")
		if name == "" {
			name = titleCase(key)
		}
		c := domain.Category{Key: key, Name: name, Slug: pick(record, index, "slug")}
		if _, err := i.categories.Upsert(ctx, c); err != nil {
			return imported, fmt.Errorf("upsert category %q: %w", key, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) error {
	p := domain.Product{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Price:       domain.Amount(row.Price),
		ImageURL:    row.ImageURL,
		CategoryKey: row.Category,
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.ID, err)
	}
	if i.content == nil {
		return nil
	}

	fields := []struct {
		field domain.ContentField
		value string
	}{
		{domain.FieldPrice, row.Price.StringFixed(2)},
		{domain.FieldStock, row.Stock},
		{domain.FieldDiscountPrice, row.DiscountPrice},
		{domain.FieldDiscountPercentage, row.DiscountPercentage},
		{domain.FieldStripePriceID, row.StripePriceID},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		key := domain.ProductKey(row.ID, f.field).String()
		if err := i.content.Upsert(ctx, key, f.value); err != nil {
			return fmt.Errorf("upsert content %q: %w", key, err)
		}
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

// parseProductRow returns nil for blank lines.
func parseProductRow(record []string, index map[string]int) (*productRow, error) {
	id := pick(record, index, "id")
	title := pick(record, index, "title")
	priceStr := pick(record, index, "price")
	if id == "" && title == "" && priceStr == "" {
		return nil, nil
	}
	if id == "" || title == "" {
		return nil, errors.New("id and title are required")
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(priceStr, ",", "."))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q for %q", priceStr, id)
	}

	row := &productRow{
		ID:                 id,
		Title:              title,
		Description:        pick(record, index, "description"),
		Price:              price.Round(2),
		ImageURL:           pick(record, index, "image_url"),
		Category:           pick(record, index, "category"),
		Stock:              pick(record, index, "stock"),
		DiscountPrice:      pick(record, index, "discount_price"),
		DiscountPercentage: pick(record, index, "discount_percentage"),
		StripePriceID:      pick(record, index, "stripe_price_id"),
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func titleCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
