package job

import "testing"

func TestCumulativeStateWorstWins(t *testing.T) {
	cases := []struct {
		name   string
		states []Status
		want   Status
	}{
		{"all completed", []Status{Completed, Completed}, Completed},
		{"one running", []Status{Completed, Running}, Running},
		{"one pending beats completed", []Status{Completed, Pending}, Pending},
		{"error beats everything", []Status{Error, Failed, Cancelled, Running}, Error},
		{"failed beats cancelled", []Status{Failed, Cancelled}, Failed},
		{"cancelled beats running", []Status{Cancelled, Running}, Cancelled},
		{"running beats pending", []Status{Running, Pending}, Running},
		{"empty is unknown", nil, Unknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CumulativeState(c.states)
			if got != c.want {
				t.Errorf("CumulativeState(%v) = %v, want %v", c.states, got, c.want)
			}
		})
	}
}

func TestCumulativeStateMonotoneUnderWorse(t *testing.T) {
	// For any multiset, swapping in a strictly worse state must not
	// produce a strictly better result.
	order := []Status{Completed, Unknown, Pending, Running, Cancelled, Failed, Error}
	for i := 1; i < len(order); i++ {
		weak := CumulativeState([]Status{order[i-1]})
		strong := CumulativeState([]Status{order[i]})
		if Worse(weak, strong) {
			t.Errorf("expected %v to not be worse than %v", weak, strong)
		}
	}
}

func TestNewArrayJobRejectsZeroTasks(t *testing.T) {
	if _, err := NewArrayJob(Job{Name: "x"}, 0, 0); err == nil {
		t.Fatal("expected error for zero-task array job")
	}
}

func TestNewArrayJobTaskIndices(t *testing.T) {
	aj, err := NewArrayJob(Job{Name: "x"}, 5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(aj.TaskList) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(aj.TaskList))
	}
	for i, task := range aj.TaskList {
		if task.Index != i+1 {
			t.Errorf("task %d has index %d, want %d", i, task.Index, i+1)
		}
	}
}

func TestArrayJobCumulativeStatus(t *testing.T) {
	aj, _ := NewArrayJob(Job{Name: "x"}, 3, 0)
	aj.TaskList[0].Status = Completed
	aj.TaskList[1].Status = Running
	aj.TaskList[2].Status = Completed
	if got := aj.CumulativeStatus(); got != Running {
		t.Errorf("CumulativeStatus() = %v, want %v", got, Running)
	}
}
