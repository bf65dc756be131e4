package models

// SequenceCounterModel holds the last issued number per document type and year.
type SequenceCounterModel struct {
	DocType    string `gorm:"type:varchar(10);primaryKey"`
	Year       int    `gorm:"primaryKey;autoIncrement:false"`
	LastNumber int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}
