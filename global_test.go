package fiber

import (
	"errors"
	"testing"
)

func TestDefaultScheduler_Singleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default should return the same scheduler")
	}
}

func TestDefaultScheduler_RunsFibers(t *testing.T) {
	var order []int64
	body := func() {
		order = append(order, Current().ID)
		if err := Yield(); err != nil {
			t.Errorf("Yield failed: %v", err)
		}
		order = append(order, Current().ID)
		if err := Exit(); err != nil {
			t.Errorf("Exit failed: %v", err)
		}
	}

	a, err := Create(&Fiber{ID: 10}, nil, body)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := Create(&Fiber{ID: 20}, &Attributes{StackSize: 4096}, body); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := Start(a); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	want := []int64{10, 20, 10, 20}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if Current() != nil {
		t.Fatal("Current should be nil after the run")
	}
}

func TestDefaultScheduler_Errors(t *testing.T) {
	if err := StartFirst(); !errors.Is(err, ErrNoFiber) {
		t.Fatalf("StartFirst error = %v, want ErrNoFiber", err)
	}
	if err := Yield(); !errors.Is(err, ErrInvalidSwitch) {
		t.Fatalf("Yield error = %v, want ErrInvalidSwitch", err)
	}
	if err := Exit(); !errors.Is(err, ErrInvalidSwitch) {
		t.Fatalf("Exit error = %v, want ErrInvalidSwitch", err)
	}
	if _, err := Create(nil, nil, nil); !errors.Is(err, ErrContextBuild) {
		t.Fatalf("Create(nil entry) error = %v, want ErrContextBuild", err)
	}
}
