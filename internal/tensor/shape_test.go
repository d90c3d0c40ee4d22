package tensor

import (
	"testing"
)

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{2, 3}, 6},
		{Shape{4}, 4},
		{Shape{2, 3, 4}, 24},
		{Shape{1, 1, 1}, 1},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		wantErr bool
	}{
		{"vector", Shape{5}, false},
		{"matrix", Shape{2, 3}, false},
		{"zero dimension", Shape{2, 0}, true},
		{"negative dimension", Shape{-1, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShapeEqual(t *testing.T) {
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("identical shapes should be equal")
	}
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("shapes with different dimensions should not be equal")
	}
	if (Shape{2, 3}).Equal(Shape{2, 3, 1}) {
		t.Error("shapes with different ranks should not be equal")
	}
}

func TestShapeClone(t *testing.T) {
	original := Shape{2, 3}
	clone := original.Clone()

	clone[0] = 99
	if original[0] != 2 {
		t.Errorf("mutating the clone changed the original: %v", original)
	}
}

func TestShapeComputeStrides(t *testing.T) {
	tests := []struct {
		shape Shape
		want  []int
	}{
		{Shape{2, 3, 4}, []int{12, 4, 1}},
		{Shape{2, 3}, []int{3, 1}},
		{Shape{5}, []int{1}},
	}

	for _, tt := range tests {
		got := tt.shape.ComputeStrides()
		if len(got) != len(tt.want) {
			t.Errorf("%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.want)
				break
			}
		}
	}
}

func TestShapeString(t *testing.T) {
	if got := (Shape{2, 3}).String(); got != "(2, 3)" {
		t.Errorf("String() = %q, want %q", got, "(2, 3)")
	}
	if got := (Shape{7}).String(); got != "(7)" {
		t.Errorf("String() = %q, want %q", got, "(7)")
	}
}
