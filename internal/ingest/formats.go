package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/staging"
)

// The country feeds arrive in a small closed set of layouts. Each format has
// one mapper into the uniform SourceOrder shape; malformed rows are skipped
// and counted, never fatal to the file (continue-on-error).

const orderDateLayout = "2006-01-02"

// csvColumns is the positional layout of the flat CSV feed. order_value
// (index 5) is redundant with final_order_amount and is not landed.
const csvColumns = 16

func parseFile(format domain.SourceFormat, file staging.File, r io.Reader, log *zap.Logger) ([]domain.SourceOrder, int, error) {
	switch format {
	case domain.FormatCSV:
		return parseCSV(file, r, log)
	case domain.FormatJSON:
		return parseJSON(file, r, log)
	default:
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrUnknownSourceFormat, format)
	}
}

func parseCSV(file staging.File, r io.Reader, log *zap.Logger) ([]domain.SourceOrder, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var orders []domain.SourceOrder
	skipped := 0
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		rowNum++

		order, err := mapCSVRecord(record)
		if err != nil {
			skipped++
			log.Warn("Skipping malformed row",
				zap.String("file", file.Name),
				zap.Int("row", rowNum),
				zap.Error(err))
			continue
		}
		stamp(&order, file, rowNum)
		orders = append(orders, order)
	}
	return orders, skipped, nil
}

func mapCSVRecord(record []string) (domain.SourceOrder, error) {
	var o domain.SourceOrder
	if len(record) != csvColumns {
		return o, fmt.Errorf("expected %d columns, got %d", csvColumns, len(record))
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 32)
	if err != nil {
		return o, fmt.Errorf("invalid order quantity %q: %w", record[3], err)
	}
	unitPrice, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return o, fmt.Errorf("invalid unit price %q: %w", record[4], err)
	}
	orderAmount, err := decimal.NewFromString(strings.TrimSpace(record[7]))
	if err != nil {
		return o, fmt.Errorf("invalid order amount %q: %w", record[7], err)
	}
	taxAmount, err := decimal.NewFromString(strings.TrimSpace(record[8]))
	if err != nil {
		return o, fmt.Errorf("invalid tax amount %q: %w", record[8], err)
	}
	orderDate, err := time.Parse(orderDateLayout, strings.TrimSpace(record[9]))
	if err != nil {
		return o, fmt.Errorf("invalid order date %q: %w", record[9], err)
	}
	if record[0] == "" {
		return o, fmt.Errorf("empty order id")
	}

	o = domain.SourceOrder{
		OrderID:         record[0],
		CustomerName:    record[1],
		MobileKey:       record[2],
		OrderQuantity:   int32(quantity),
		UnitPrice:       unitPrice,
		PromotionCode:   optional(record[6]),
		OrderAmount:     orderAmount,
		TaxAmount:       taxAmount,
		OrderDate:       orderDate,
		PaymentStatus:   record[10],
		ShippingStatus:  record[11],
		PaymentMethod:   record[12],
		PaymentProvider: record[13],
		ContactNumber:   record[14],
		ShippingAddress: record[15],
	}
	return o, nil
}

// jsonRecord is the named-field document layout shared by the US and FR
// feeds.
type jsonRecord struct {
	OrderID         string          `json:"Order ID"`
	CustomerName    string          `json:"Customer Name"`
	MobileKey       string          `json:"Mobile Model"`
	Quantity        json.Number     `json:"Quantity"`
	UnitPrice       decimal.Decimal `json:"Price per Unit"`
	PromotionCode   string          `json:"Promotion Code"`
	OrderAmount     decimal.Decimal `json:"Order Amount"`
	Tax             decimal.Decimal `json:"Tax"`
	OrderDate       string          `json:"Order Date"`
	PaymentStatus   string          `json:"Payment Status"`
	ShippingStatus  string          `json:"Shipping Status"`
	PaymentMethod   string          `json:"Payment Method"`
	PaymentProvider string          `json:"Payment Provider"`
	Phone           string          `json:"Phone"`
	ShippingAddress string          `json:"Delivery Address"`
}

func parseJSON(file staging.File, r io.Reader, log *zap.Logger) ([]domain.SourceOrder, int, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", file.Name, err)
	}

	var orders []domain.SourceOrder
	skipped := 0
	for i, msg := range raw {
		order, err := mapJSONRecord(msg)
		if err != nil {
			skipped++
			log.Warn("Skipping malformed row",
				zap.String("file", file.Name),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		stamp(&order, file, i+1)
		orders = append(orders, order)
	}
	return orders, skipped, nil
}

func mapJSONRecord(msg json.RawMessage) (domain.SourceOrder, error) {
	var o domain.SourceOrder

	// Some feeds nest the fields under a document key; unwrap when present.
	var envelope struct {
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(msg, &envelope); err == nil && len(envelope.Document) > 0 {
		msg = envelope.Document
	}

	var rec jsonRecord
	if err := json.Unmarshal(msg, &rec); err != nil {
		return o, fmt.Errorf("invalid document: %w", err)
	}
	if rec.OrderID == "" {
		return o, fmt.Errorf("empty order id")
	}
	quantity, err := strconv.ParseInt(rec.Quantity.String(), 10, 32)
	if err != nil {
		return o, fmt.Errorf("invalid quantity %q: %w", rec.Quantity.String(), err)
	}
	orderDate, err := time.Parse(orderDateLayout, rec.OrderDate)
	if err != nil {
		return o, fmt.Errorf("invalid order date %q: %w", rec.OrderDate, err)
	}

	o = domain.SourceOrder{
		OrderID:         rec.OrderID,
		CustomerName:    rec.CustomerName,
		MobileKey:       rec.MobileKey,
		OrderQuantity:   int32(quantity),
		UnitPrice:       rec.UnitPrice,
		PromotionCode:   optional(rec.PromotionCode),
		OrderAmount:     rec.OrderAmount,
		TaxAmount:       rec.Tax,
		OrderDate:       orderDate,
		PaymentStatus:   rec.PaymentStatus,
		ShippingStatus:  rec.ShippingStatus,
		PaymentMethod:   rec.PaymentMethod,
		PaymentProvider: rec.PaymentProvider,
		ContactNumber:   rec.Phone,
		ShippingAddress: rec.ShippingAddress,
	}
	return o, nil
}

func stamp(o *domain.SourceOrder, file staging.File, row int) {
	o.StageFileName = filepath.Join(file.Partition, file.Name)
	o.StageRowNumber = uint32(row)
	o.StageLastModified = file.ModTime
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
