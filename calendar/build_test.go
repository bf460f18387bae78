/*
build_test.go - Build orchestration tests

Covers:
- Happy path: all steps ok, snapshot attached, deterministic rows across runs
- Fatal configuration errors: nothing derived, status error
- Holiday degradation: unreachable provider marks the step degraded, the
  build completes with holiday flags defaulted to false
- The July fiscal scenario surfacing in the composed rows
*/
package calendar

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func validBuildConfig() BuildConfig {
	return BuildConfig{
		RangeStart:        "2020-06-01",
		RangeEnd:          "2020-12-31",
		FiscalStartMonth:  7,
		RetailPattern:     "445",
		RetailAnchorMonth: 1,
		RetailWeekStart:   0,
	}
}

type failingProvider struct{}

func (failingProvider) HolidaysBetween(context.Context, CalendarDate, CalendarDate) ([]HolidayRecord, error) {
	return nil, ErrUpstreamData
}

func stepByName(t *testing.T, res *BuildResult, name string) StepResult {
	t.Helper()
	for _, s := range res.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("build has no %q step: %+v", name, res.Steps)
	return StepResult{}
}

func TestBuilderRun_Success(t *testing.T) {
	b := &Builder{Log: quietLogger()}

	res := b.Run(context.Background(), validBuildConfig())

	if res.Status != BuildSuccess {
		t.Fatalf("status = %s, want success (errors: %v)", res.Status, res.Errors)
	}
	if res.BuildID == "" {
		t.Error("build id must be assigned")
	}
	if res.Calendar == nil {
		t.Fatal("successful build must attach a snapshot")
	}
	if res.RowCount != 214 { // 2020-06-01 .. 2020-12-31 inclusive
		t.Errorf("row count = %d, want 214", res.RowCount)
	}
	for _, name := range []string{"config", "spine", "holidays", "compose"} {
		if s := stepByName(t, res, name); s.Status != StepOK {
			t.Errorf("step %s = %s, want ok", name, s.Status)
		}
	}

	// The July fiscal year start shows up in the composed rows.
	row, ok := res.Calendar.Row(20200701)
	if !ok {
		t.Fatal("2020-07-01 not materialized")
	}
	if row.Fiscal == nil || row.Fiscal.Year != 2021 || !row.Fiscal.IsYearStart {
		t.Errorf("2020-07-01 fiscal = %+v, want year 2021 start", row.Fiscal)
	}
}

func TestBuilderRun_Deterministic(t *testing.T) {
	b := &Builder{Log: quietLogger()}
	cfg := validBuildConfig()

	first := b.Run(context.Background(), cfg)
	second := b.Run(context.Background(), cfg)

	if first.BuildID == second.BuildID {
		t.Error("each run must mint its own build id")
	}
	if !reflect.DeepEqual(first.Calendar.Rows(), second.Calendar.Rows()) {
		t.Error("identical configs must compose identical rows")
	}
}

func TestBuilderRun_ConfigErrorIsFatal(t *testing.T) {
	b := &Builder{Log: quietLogger()}
	cfg := validBuildConfig()
	cfg.FiscalStartMonth = 2
	cfg.FiscalStartDay = 30

	res := b.Run(context.Background(), cfg)

	if res.Status != BuildError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if res.Calendar != nil {
		t.Error("failed build must not attach a snapshot")
	}
	if s := stepByName(t, res, "config"); s.Status != StepFailed {
		t.Errorf("config step = %s, want failed", s.Status)
	}
	if len(res.Steps) != 1 {
		t.Errorf("a fatal config error must stop before derivation, got steps %+v", res.Steps)
	}
}

func TestBuilderRun_InvertedRangeIsFatal(t *testing.T) {
	b := &Builder{Log: quietLogger()}
	cfg := validBuildConfig()
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart

	if res := b.Run(context.Background(), cfg); res.Status != BuildError {
		t.Errorf("status = %s, want error", res.Status)
	}
}

func TestBuilderRun_HolidayFailureDegrades(t *testing.T) {
	// GIVEN: a holiday provider that is unreachable
	b := &Builder{Holidays: failingProvider{}, Log: quietLogger()}

	// WHEN: running an otherwise valid build
	res := b.Run(context.Background(), validBuildConfig())

	// THEN: the build completes partially with holiday flags defaulted
	if res.Status != BuildPartial {
		t.Fatalf("status = %s, want partial", res.Status)
	}
	if s := stepByName(t, res, "holidays"); s.Status != StepDegraded {
		t.Errorf("holidays step = %s, want degraded", s.Status)
	}
	if res.Calendar == nil || res.RowCount == 0 {
		t.Fatal("degraded build must still compose rows")
	}
	for _, row := range res.Calendar.Rows() {
		if row.IsHoliday {
			t.Fatalf("row %d flagged holiday with no holiday data", row.Key)
		}
	}
}

func TestBuilderRun_StaticHolidaysFlagRows(t *testing.T) {
	records := []HolidayRecord{
		{Date: MustDate("2020-07-03"), Name: "Independence Day (observed)", Jurisdiction: "US"},
	}
	b := &Builder{Holidays: staticProvider(records), Log: quietLogger()}

	res := b.Run(context.Background(), validBuildConfig())
	if res.Status != BuildSuccess {
		t.Fatalf("status = %s, want success", res.Status)
	}
	row, _ := res.Calendar.Row(20200703)
	if !row.IsHoliday || row.IsTradingDay {
		t.Errorf("2020-07-03 holiday/trading = %v/%v, want true/false", row.IsHoliday, row.IsTradingDay)
	}
}

type staticProvider []HolidayRecord

func (p staticProvider) HolidaysBetween(_ context.Context, from, to CalendarDate) ([]HolidayRecord, error) {
	var out []HolidayRecord
	for _, r := range p {
		if r.Date.AfterOrEqual(from) && r.Date.BeforeOrEqual(to) {
			out = append(out, r)
		}
	}
	return out, nil
}
