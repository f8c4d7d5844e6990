package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := LoadState(filepath.Join(t.TempDir(), "position.json"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	return s
}

func TestFreshStateIsNone(t *testing.T) {
	s := newTestState(t)

	if s.Position != PositionNone {
		t.Errorf("Expected NONE, got %s", s.Position)
	}
	if s.Ticker != "" || s.EntryPrice != 0 {
		t.Error("Expected empty ticker and entry price on fresh state")
	}
}

func TestEntryLifecycle(t *testing.T) {
	s := newTestState(t)
	now := time.Now()

	if err := s.EnterPending("AAPL", 100.0, "ORD-1", now); err != nil {
		t.Fatalf("EnterPending: %v", err)
	}
	if s.Position != PositionPending {
		t.Fatalf("Expected ORDER_PENDING, got %s", s.Position)
	}
	if s.PendingOrderID != "ORD-1" || s.PendingSince == nil {
		t.Error("Expected pending order fields to be set")
	}
	if !s.HasTraded("AAPL") {
		t.Error("Expected AAPL in traded set after entry")
	}

	if err := s.ConfirmFilled(10, 5); err != nil {
		t.Fatalf("ConfirmFilled: %v", err)
	}
	if s.Position != PositionHolding {
		t.Fatalf("Expected HOLDING, got %s", s.Position)
	}
	if s.TakeProfitPrice != 110.0 {
		t.Errorf("Expected take profit 110.0, got %f", s.TakeProfitPrice)
	}
	if s.StopLossPrice != 95.0 {
		t.Errorf("Expected stop loss 95.0, got %f", s.StopLossPrice)
	}
	if s.PendingOrderID != "" || s.PendingSince != nil {
		t.Error("Expected pending fields cleared after fill")
	}

	if err := s.ExitPosition(); err != nil {
		t.Fatalf("ExitPosition: %v", err)
	}
	if s.Position != PositionNone || s.Ticker != "" || s.EntryPrice != 0 {
		t.Error("Expected all position fields cleared after exit")
	}
	if s.HasNewsReference() {
		t.Error("Expected news reference cleared after exit")
	}
	if !s.HasTraded("AAPL") {
		t.Error("Expected AAPL to stay in traded set after exit")
	}
}

func TestConfirmFilledRequiresPending(t *testing.T) {
	s := newTestState(t)
	if err := s.ConfirmFilled(10, 5); err == nil {
		t.Error("Expected error confirming fill from NONE")
	}
}

func TestCancelPendingClearsFields(t *testing.T) {
	s := newTestState(t)
	now := time.Now()
	if err := s.EnterPending("TSLA", 250.0, "ORD-2", now); err != nil {
		t.Fatalf("EnterPending: %v", err)
	}
	if err := s.CancelPending(); err != nil {
		t.Fatalf("CancelPending: %v", err)
	}
	if s.Position != PositionNone {
		t.Errorf("Expected NONE after cancel, got %s", s.Position)
	}
	if s.PendingOrderID != "" || s.PendingSince != nil || s.Ticker != "" {
		t.Error("Expected pending fields cleared after cancel")
	}
}

func TestPendingElapsed(t *testing.T) {
	s := newTestState(t)
	t0 := time.Now()
	if err := s.EnterPending("NVDA", 500.0, "ORD-3", t0); err != nil {
		t.Fatalf("EnterPending: %v", err)
	}
	if got := s.PendingElapsed(t0.Add(29 * time.Second)); got != 29*time.Second {
		t.Errorf("Expected 29s elapsed, got %v", got)
	}
}

func TestIsNewTop3IsOrderSensitive(t *testing.T) {
	s := newTestState(t)

	first := []string{"a", "b", "c"}
	if !s.IsNewTop3(first) {
		t.Error("Expected first top-3 to be new")
	}
	if err := s.SetTop3(first); err != nil {
		t.Fatalf("SetTop3: %v", err)
	}
	if s.IsNewTop3([]string{"a", "b", "c"}) {
		t.Error("Expected identical list to not be new")
	}
	// Same set, different order, must count as new.
	if !s.IsNewTop3([]string{"b", "a", "c"}) {
		t.Error("Expected reordered list to be treated as new")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "position.json")

	s, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := s.EnterPending("MSFT", 400.0, "ORD-4", now); err != nil {
		t.Fatalf("EnterPending: %v", err)
	}
	if err := s.SetNewsReference(395.5, now); err != nil {
		t.Fatalf("SetNewsReference: %v", err)
	}
	if err := s.SetTop3([]string{"n1", "n2", "n3"}); err != nil {
		t.Fatalf("SetTop3: %v", err)
	}

	restored, err := LoadState(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if restored.Position != PositionPending {
		t.Errorf("Expected ORDER_PENDING after reload, got %s", restored.Position)
	}
	if restored.Ticker != "MSFT" || restored.EntryPrice != 400.0 {
		t.Errorf("Expected MSFT@400 after reload, got %s@%f", restored.Ticker, restored.EntryPrice)
	}
	if restored.PendingOrderID != "ORD-4" {
		t.Errorf("Expected ORD-4 after reload, got %s", restored.PendingOrderID)
	}
	if restored.PendingSince == nil || !restored.PendingSince.Equal(now) {
		t.Errorf("Expected pending since %v, got %v", now, restored.PendingSince)
	}
	if restored.NewsReferencePrice != 395.5 {
		t.Errorf("Expected reference price 395.5, got %f", restored.NewsReferencePrice)
	}
	if restored.IsNewTop3([]string{"n1", "n2", "n3"}) {
		t.Error("Expected persisted top-3 to survive reload")
	}
	if !restored.HasTraded("MSFT") {
		t.Error("Expected traded set to survive reload")
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "position.json")

	s, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if err := s.SetTop3([]string{"x"}); err != nil {
		t.Fatalf("SetTop3: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected state file to exist: %v", err)
	}
}

func TestCorruptStateFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "position.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadState(path); err == nil {
		t.Error("Expected error loading corrupt state file")
	}
}

func TestInconsistentStateFileIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"holding without ticker", `{"position":"HOLDING"}`},
		{"holding without tp/sl", `{"position":"HOLDING","ticker":"AAPL","entry_price":100}`},
		{"pending without order fields", `{"position":"ORDER_PENDING","ticker":"AAPL","entry_price":100}`},
		{"none with leftover ticker", `{"position":"NONE","ticker":"AAPL","entry_price":100}`},
		{"unknown position", `{"position":"SHORT"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "position.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadState(path); err == nil {
				t.Error("Expected error loading inconsistent state file")
			}
		})
	}
}
