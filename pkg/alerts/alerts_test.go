package alerts

import (
	"context"
	"testing"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/search"
	"github.com/tlind/drive-finder/pkg/storage"
	"github.com/tlind/drive-finder/pkg/types"
)

type fixedFetcher struct {
	instructors []types.Instructor
	calls       int
}

func (f *fixedFetcher) FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*client.Page, error) {
	f.calls++
	return &client.Page{
		Instructors: f.instructors,
		RawCount:    len(f.instructors),
		Limit:       limit,
	}, nil
}

var _ search.PageFetcher = &fixedFetcher{}

func testService(t *testing.T, fetcher search.PageFetcher) (*AlertService, *[]string) {
	t.Helper()
	disk := storage.NewDiskStorage("test", t.TempDir())
	service := NewAlertService(disk, fetcher)
	notified := &[]string{}
	service.send = func(ctx context.Context, alert *Alert, fresh []types.Instructor) error {
		for _, instructor := range fresh {
			*notified = append(*notified, instructor.Id)
		}
		return nil
	}
	return service, notified
}

func TestAddAlertRequiresOutcode(t *testing.T) {
	service, _ := testService(t, &fixedFetcher{})
	_, err := service.AddAlert("device-token", types.Criteria{})
	if err == nil {
		t.Error("Expected error for alert without outcode")
	}
}

func TestFirstSweepSeedsWithoutNotifying(t *testing.T) {
	fetcher := &fixedFetcher{instructors: []types.Instructor{{Id: "i1"}, {Id: "i2"}}}
	service, notified := testService(t, fetcher)
	if _, err := service.AddAlert("token", types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}

	service.Sweep(context.Background())
	if len(*notified) != 0 {
		t.Errorf("Expected no notifications on first sweep, got %v", *notified)
	}

	fetcher.instructors = append(fetcher.instructors, types.Instructor{Id: "i3"})
	service.Sweep(context.Background())
	if len(*notified) != 1 || (*notified)[0] != "i3" {
		t.Errorf("Expected notification for i3, got %v", *notified)
	}
}

func TestEmptyAreaNotifiesOnFirstArrival(t *testing.T) {
	fetcher := &fixedFetcher{}
	service, notified := testService(t, fetcher)
	if _, err := service.AddAlert("token", types.Criteria{Outcodes: []string{"M1"}}); err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}

	service.Sweep(context.Background())
	fetcher.instructors = []types.Instructor{{Id: "i9"}}
	service.Sweep(context.Background())

	if len(*notified) != 1 || (*notified)[0] != "i9" {
		t.Errorf("Expected notification for i9, got %v", *notified)
	}
}

func TestSweepDoesNotRepeatNotifications(t *testing.T) {
	fetcher := &fixedFetcher{instructors: []types.Instructor{{Id: "i1"}}}
	service, notified := testService(t, fetcher)
	if _, err := service.AddAlert("token", types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}

	service.Sweep(context.Background())
	service.Sweep(context.Background())
	service.Sweep(context.Background())
	if len(*notified) != 0 {
		t.Errorf("Expected no notifications for unchanged results, got %v", *notified)
	}
}

func TestAddAlertReplacesDuplicate(t *testing.T) {
	service, _ := testService(t, &fixedFetcher{})
	criteria := types.Criteria{Outcodes: []string{"SW1"}, Gender: "Female"}
	first, err := service.AddAlert("token", criteria)
	if err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}
	second, err := service.AddAlert("token", criteria)
	if err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}
	if len(service.Alerts) != 1 {
		t.Errorf("Expected 1 alert after duplicate add, got %d", len(service.Alerts))
	}
	if first.Id == second.Id {
		t.Error("Expected replacement alert to get a new id")
	}
}

func TestRemoveAlert(t *testing.T) {
	service, _ := testService(t, &fixedFetcher{})
	alert, err := service.AddAlert("token", types.Criteria{Outcodes: []string{"SW1"}})
	if err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}
	if err := service.RemoveAlert(alert.Id); err != nil {
		t.Errorf("RemoveAlert failed: %v", err)
	}
	if len(service.Alerts) != 0 {
		t.Errorf("Expected 0 alerts after remove, got %d", len(service.Alerts))
	}
	if err := service.RemoveAlert(alert.Id); err == nil {
		t.Error("Expected error removing unknown alert")
	}
}

func TestAlertsPersistAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	disk := storage.NewDiskStorage("test", dir)
	fetcher := &fixedFetcher{}

	service := NewAlertService(disk, fetcher)
	if _, err := service.AddAlert("token", types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("AddAlert failed: %v", err)
	}

	reloaded := NewAlertService(storage.NewDiskStorage("test", dir), fetcher)
	if len(reloaded.Alerts) != 1 {
		t.Fatalf("Expected 1 alert after reload, got %d", len(reloaded.Alerts))
	}
	if reloaded.Alerts[0].Token != "token" {
		t.Errorf("Expected token to survive reload, got %q", reloaded.Alerts[0].Token)
	}
}
