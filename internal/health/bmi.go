// Package health tracks body-mass-index measurements.
package health

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Category is the WHO classification of a BMI value.
type Category string

const (
	CategoryUnderweight Category = "Underweight"
	CategoryNormal      Category = "Normal"
	CategoryOverweight  Category = "Overweight"
	CategoryObese       Category = "Obese"
)

// Measurement is the raw input for a BMI record.
type Measurement struct {
	HeightCm float64 `json:"heightCm" validate:"gt=0,lte=300"`
	WeightKg float64 `json:"weightKg" validate:"gt=0,lte=700"`
}

// BMIRecord is a stored BMI measurement.
type BMIRecord struct {
	ID        string    `json:"id"`
	HeightCm  float64   `json:"heightCm"`
	WeightKg  float64   `json:"weightKg"`
	BMI       float64   `json:"bmiValue"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"timestamp"`
}

var validate = validator.New()

// NewRecord validates m and computes its BMI and category.
func NewRecord(m Measurement) (BMIRecord, error) {
	if err := validate.Struct(m); err != nil {
		return BMIRecord{}, formatValidationError(err)
	}

	value := Calculate(m.HeightCm, m.WeightKg)
	return BMIRecord{
		ID:        uuid.NewString(),
		HeightCm:  m.HeightCm,
		WeightKg:  m.WeightKg,
		BMI:       value,
		Category:  Classify(value),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Calculate returns weight / height^2 (height in metres) rounded to one decimal.
func Calculate(heightCm, weightKg float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	h := heightCm / 100
	return math.Round(weightKg/(h*h)*10) / 10
}

// Classify maps a BMI value to its category.
func Classify(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid measurement: %s", strings.Join(msgs, "; "))
}
