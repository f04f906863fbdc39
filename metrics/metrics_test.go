package metrics

import "testing"

func TestRequest_IncrementsCounterAndObservesHistogram(t *testing.T) {
	m := New()
	m.Request("w1", "balance", true, 42)

	fams, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, f := range fams {
		if f.GetName() == "balius_requests_total" {
			found = true
			if len(f.Metric) != 1 || f.Metric[0].Counter.GetValue() != 1 {
				t.Fatalf("want one sample with value 1, got %+v", f.Metric)
			}
		}
	}
	if !found {
		t.Fatal("balius_requests_total not registered")
	}
}

func TestSetLoadedWorkers(t *testing.T) {
	m := New()
	m.SetLoadedWorkers(3)

	fams, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range fams {
		if f.GetName() == "balius_loaded_workers" {
			if f.Metric[0].Gauge.GetValue() != 3 {
				t.Fatalf("want 3, got %v", f.Metric[0].Gauge.GetValue())
			}
			return
		}
	}
	t.Fatal("balius_loaded_workers not registered")
}
