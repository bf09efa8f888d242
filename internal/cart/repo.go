package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// lineRow mirrors the cart_lines table created by pkg/migrate.
type lineRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	Position      int    `gorm:"not null"`
	ProductID     string `gorm:"column:product_id;not null"`
	VendorID      string `gorm:"column:vendor_id;not null;default:''"`
	VendorName    string `gorm:"column:vendor_name;not null;default:''"`
	VendorTracked bool   `gorm:"column:vendor_tracked;not null;default:false"`
	Name          string `gorm:"not null"`
	Category      string `gorm:"not null;default:''"`
	UnitPrice     string `gorm:"column:unit_price;not null;default:'0'"`
	Unit          string `gorm:"not null;default:''"`
	Quantity      int    `gorm:"not null;default:1"`
}

func (lineRow) TableName() string { return "cart_lines" }

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SnapshotRepository persists the cart snapshot as a whole.
type SnapshotRepository interface {
	Load(ctx context.Context) (Snapshot, error)
	Replace(ctx context.Context, snapshot Snapshot) error
}

type repository struct {
	conn *gorm.DB
	tx   txRunner
}

// NewRepository builds the sqlite-backed snapshot repository.
func NewRepository(conn *gorm.DB, tx txRunner) (SnapshotRepository, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &repository{conn: conn, tx: tx}, nil
}

// Load reads the persisted snapshot in stored order.
func (r *repository) Load(ctx context.Context) (Snapshot, error) {
	var rows []lineRow
	if err := r.conn.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading cart snapshot: %w", err)
	}

	snapshot := make(Snapshot, 0, len(rows))
	for _, row := range rows {
		line, err := rowToLine(row)
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, line)
	}
	return snapshot, nil
}

// Replace swaps the persisted snapshot for the provided one atomically.
func (r *repository) Replace(ctx context.Context, snapshot Snapshot) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&lineRow{}).Error; err != nil {
			return fmt.Errorf("clearing cart snapshot: %w", err)
		}
		if len(snapshot) == 0 {
			return nil
		}
		rows := make([]lineRow, len(snapshot))
		for i, line := range snapshot {
			rows[i] = lineToRow(line, i)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("writing cart snapshot: %w", err)
		}
		return nil
	})
}

func rowToLine(row lineRow) (Line, error) {
	price, err := decimal.NewFromString(row.UnitPrice)
	if err != nil {
		return Line{}, fmt.Errorf("corrupt unit price %q for product %s: %w", row.UnitPrice, row.ProductID, err)
	}
	vendor := VendorRef{ID: row.VendorID, Name: row.VendorName, Tracked: row.VendorTracked}
	return Line{
		ProductID: row.ProductID,
		Vendor:    vendor,
		Name:      row.Name,
		Category:  row.Category,
		UnitPrice: price,
		Unit:      row.Unit,
		Quantity:  row.Quantity,
	}, nil
}

func lineToRow(line Line, position int) lineRow {
	return lineRow{
		Position:      position,
		ProductID:     line.ProductID,
		VendorID:      ResolveKey(line.ProductID, line.Vendor).VendorID,
		VendorName:    line.Vendor.Name,
		VendorTracked: line.Vendor.Tracked,
		Name:          line.Name,
		Category:      line.Category,
		UnitPrice:     line.UnitPrice.String(),
		Unit:          line.Unit,
		Quantity:      line.Quantity,
	}
}
