package detector

import "testing"

func TestFilterOutliers_KeepsAllBelowFourRecords(t *testing.T) {
	got := filterOutliers([]float64{1.0, 1.01, 1.5})
	if len(got) != 3 {
		t.Fatalf("expected all 3 records kept below the 4-record threshold, got %v", got)
	}
}

func TestFilterOutliers_DropsClearOutlier(t *testing.T) {
	// four close prices plus one wild outlier
	prices := []float64{1.00, 1.01, 0.99, 1.02, 50.0}
	surviving := filterOutliers(prices)

	for _, idx := range surviving {
		if idx == 4 {
			t.Fatalf("expected the wild outlier (index 4) to be excluded, got surviving=%v", surviving)
		}
	}
	if len(surviving) < 3 {
		t.Fatalf("expected the close cluster to survive, got %v", surviving)
	}
}

func TestFilterOutliers_KeepsOriginalsIfAllWouldBeExcluded(t *testing.T) {
	// every record is wildly different from every other, so every
	// record's spreads trip the fence, but we must never return empty.
	prices := []float64{1.0, 100.0, 10000.0, 1000000.0}
	got := filterOutliers(prices)
	if len(got) == 0 {
		t.Fatal("expected filter to keep originals rather than return empty")
	}
}

func TestPercentile_Bounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if p := percentile(sorted, 0); p != 1 {
		t.Fatalf("expected p0 = 1, got %v", p)
	}
	if p := percentile(sorted, 1); p != 5 {
		t.Fatalf("expected p100 = 5, got %v", p)
	}
}
