package plan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInferType(t *testing.T) {
	assert.Equal(t, TypeSubscription, InferType(0))
	assert.Equal(t, TypeSubscription, InferType(-1))
	assert.Equal(t, TypeSingle, InferType(1))
	assert.Equal(t, TypePackage, InferType(2))
	assert.Equal(t, TypePackage, InferType(12))
}

func TestType_CountBased(t *testing.T) {
	assert.False(t, TypeSubscription.CountBased())
	assert.True(t, TypePackage.CountBased())
	assert.True(t, TypeSingle.CountBased())
	assert.False(t, Type("weekly").Valid())
}

func TestPlan_Duration(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, Plan{DurationDays: 30}.Duration())
	assert.Equal(t, 12*time.Hour, Plan{DurationDays: 0.5}.Duration())
	assert.Zero(t, Plan{}.Duration())
}

func TestValidate(t *testing.T) {
	price := decimal.NewFromInt(100)
	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"subscription", Plan{Name: "Monthly", PlanType: TypeSubscription, DurationDays: 30, Price: price}, nil},
		{"package", Plan{Name: "10 visits", PlanType: TypePackage, Sessions: 10, Price: price}, nil},
		{"single", Plan{Name: "Drop-in", PlanType: TypeSingle, Sessions: 1, Price: price}, nil},
		{"package with one session", Plan{Name: "x", PlanType: TypePackage, Sessions: 1}, ErrPlanTypeMismatch},
		{"single with two sessions", Plan{Name: "x", PlanType: TypeSingle, Sessions: 2}, ErrPlanTypeMismatch},
		{"subscription with sessions", Plan{Name: "x", PlanType: TypeSubscription, Sessions: 5}, ErrPlanTypeMismatch},
		{"missing name", Plan{PlanType: TypeSubscription}, ErrInvalidPlan},
		{"negative price", Plan{Name: "x", PlanType: TypeSubscription, Price: decimal.NewFromInt(-1)}, ErrInvalidPlan},
		{"unknown type", Plan{Name: "x", PlanType: "weekly"}, ErrInvalidPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.plan
			assert.Equal(t, tt.want, Validate(&p))
		})
	}
}
