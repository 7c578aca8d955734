package alerts

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/tlind/drive-finder/pkg/search"
	"github.com/tlind/drive-finder/pkg/types"
)

const alertsFile = "availability_alerts.json"

// Alert is one saved search a student wants push notifications for:
// "tell me when a new instructor covering my area shows up".
type Alert struct {
	Id        string         `json:"id"`
	Token     string         `json:"token"`
	Criteria  types.Criteria `json:"criteria"`
	SeenIds   []string       `json:"seenIds"`
	Primed    bool           `json:"primed"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (a *Alert) seen(id string) bool {
	for _, seenId := range a.SeenIds {
		if seenId == id {
			return true
		}
	}
	return false
}

// AlertService owns the saved alerts, sweeps them against the search
// backend and pushes a notification when a new instructor appears.
type AlertService struct {
	mu      sync.Mutex
	storage types.StorageProvider
	fetcher search.PageFetcher
	send    func(ctx context.Context, alert *Alert, fresh []types.Instructor) error
	Alerts  []Alert `json:"alerts"`
}

func NewAlertService(storage types.StorageProvider, fetcher search.PageFetcher) *AlertService {
	service := &AlertService{
		storage: storage,
		fetcher: fetcher,
		Alerts:  []Alert{},
	}
	service.send = service.notify
	if err := storage.LoadJson(service, alertsFile); err != nil {
		log.Printf("Error loading alerts: %v", err)
	}
	return service
}

func (s *AlertService) save() error {
	return s.storage.SaveJson(s, alertsFile)
}

// AddAlert registers a device token for a criteria set. An existing alert
// for the same token and criteria is replaced.
func (s *AlertService) AddAlert(token string, criteria types.Criteria) (*Alert, error) {
	if token == "" {
		return nil, fmt.Errorf("device token is required")
	}
	if !criteria.HasLocation() {
		return nil, fmt.Errorf("alerts need at least one outcode")
	}

	alert := Alert{
		Id:        uuid.NewString(),
		Token:     token,
		Criteria:  criteria,
		SeenIds:   []string{},
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	replaced := false
	for i, existing := range s.Alerts {
		if existing.Token == token && existing.Criteria.Equal(&criteria) {
			s.Alerts[i] = alert
			replaced = true
			break
		}
	}
	if !replaced {
		s.Alerts = append(s.Alerts, alert)
	}
	err := s.save()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *AlertService) RemoveAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, alert := range s.Alerts {
		if alert.Id == id {
			s.Alerts = append(s.Alerts[:i], s.Alerts[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("alert %s not found", id)
}

// Sweep re-runs every alert's search and notifies on instructors not seen
// before for that alert. The first sweep after creation seeds the seen
// list without notifying.
func (s *AlertService) Sweep(ctx context.Context) {
	s.mu.Lock()
	alerts := make([]Alert, len(s.Alerts))
	copy(alerts, s.Alerts)
	s.mu.Unlock()

	for i := range alerts {
		alert := &alerts[i]
		page, err := s.fetcher.FetchPage(ctx, &alert.Criteria, 1, 10)
		if err != nil {
			log.Printf("Alert sweep fetch failed for %s: %v", alert.Id, err)
			continue
		}

		fresh := []types.Instructor{}
		for _, instructor := range page.Instructors {
			if !alert.seen(instructor.Id) {
				fresh = append(fresh, instructor)
				alert.SeenIds = append(alert.SeenIds, instructor.Id)
			}
		}

		if len(fresh) > 0 && alert.Primed {
			if err := s.send(ctx, alert, fresh); err != nil {
				log.Printf("Error sending alert notification: %v", err)
			}
		}
		alert.Primed = true
		s.updateSeen(alert)
	}
}

func (s *AlertService) updateSeen(updated *Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Alerts {
		if s.Alerts[i].Id == updated.Id {
			s.Alerts[i].SeenIds = updated.SeenIds
			s.Alerts[i].Primed = updated.Primed
			break
		}
	}
	if err := s.save(); err != nil {
		log.Printf("Error saving alerts: %v", err)
	}
}

// RunSweeper sweeps on the given interval until the context is cancelled.
func (s *AlertService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *AlertService) notify(ctx context.Context, alert *Alert, fresh []types.Instructor) error {
	title := "New driving instructors in your area"
	body := fmt.Sprintf("%d new instructor(s) match your search", len(fresh))
	if len(fresh) == 1 {
		body = fresh[0].Name + " now covers your area"
	}
	return sendFirebaseNotification(ctx, alert.Token, &messaging.Notification{
		Title: title,
		Body:  body,
	}, map[string]string{"alertId": alert.Id})
}

// sendFirebaseNotification pushes one message through Firebase Cloud
// Messaging. GOOGLE_APPLICATION_CREDENTIALS should be set in the
// environment, or a credentials file path is picked up from it.
func sendFirebaseNotification(ctx context.Context, registrationToken string, notification *messaging.Notification, data map[string]string) error {
	var app *firebase.App
	var err error

	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		opt := option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		app, err = firebase.NewApp(ctx, nil, opt)
	} else {
		app, err = firebase.NewApp(ctx, nil)
	}
	if err != nil {
		return err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return err
	}

	message := &messaging.Message{
		Notification: notification,
		Data:         data,
		Token:        registrationToken,
	}
	response, err := client.Send(ctx, message)
	if err != nil {
		return err
	}
	log.Printf("Sent alert notification: %s", response)
	return nil
}
