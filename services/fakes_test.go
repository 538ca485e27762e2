package services

import (
	"context"
	"sync"
	"time"

	"backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeMealStore is an in-memory MealStore that counts fetches per date and
// can be forced to fail.
type fakeMealStore struct {
	mu        sync.Mutex
	meals     map[string][]models.MealRecord // date -> records
	listCalls map[string]int
	listErr   error
	failDates map[string]error
	createErr error
	deleteErr error
}

var _ MealStore = (*fakeMealStore)(nil)

func newFakeMealStore() *fakeMealStore {
	return &fakeMealStore{
		meals:     make(map[string][]models.MealRecord),
		listCalls: make(map[string]int),
		failDates: make(map[string]error),
	}
}

func (f *fakeMealStore) seed(date string, recs ...models.MealRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meals[date] = append(f.meals[date], recs...)
}

func (f *fakeMealStore) calls(date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[date]
}

func (f *fakeMealStore) ListByDate(_ context.Context, _ uint, date string) ([]models.MealRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[date]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if err, ok := f.failDates[date]; ok {
		return nil, err
	}
	return append([]models.MealRecord(nil), f.meals[date]...), nil
}

func (f *fakeMealStore) Create(_ context.Context, rec *models.MealRecord) (*models.MealRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	stored := *rec
	stored.CreatedAt = time.Now()
	f.meals[rec.MealDate] = append(f.meals[rec.MealDate], stored)
	return &stored, nil
}

func (f *fakeMealStore) Delete(_ context.Context, userID uint, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for date, recs := range f.meals {
		for i, r := range recs {
			if r.ID == id && r.UserID == userID {
				f.meals[date] = append(recs[:i:i], recs[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeBilling is a scriptable BillingClient.
type fakeBilling struct {
	info        *CustomerInfo
	infoErr     error
	purchaseErr error
}

var _ BillingClient = (*fakeBilling)(nil)

func (f *fakeBilling) GetCustomerInfo(context.Context, uint) (*CustomerInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeBilling) Purchase(context.Context, uint, string, string, string) error {
	return f.purchaseErr
}

func (f *fakeBilling) RestorePurchases(context.Context, uint) (*CustomerInfo, error) {
	return f.info, f.infoErr
}

// fakeSubStore is a scriptable SubscriptionStore.
type fakeSubStore struct {
	mu        sync.Mutex
	active    *models.SubscriptionRecord
	latest    *models.SubscriptionRecord
	activeErr error
	latestErr error
	upsertErr error
	upserts   []models.SubscriptionRecord
}

var _ SubscriptionStore = (*fakeSubStore)(nil)

func (f *fakeSubStore) GetActive(context.Context, uint) (*models.SubscriptionRecord, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	if f.active == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.active, nil
}

func (f *fakeSubStore) GetLatest(context.Context, uint) (*models.SubscriptionRecord, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	if f.latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.latest, nil
}

func (f *fakeSubStore) Upsert(_ context.Context, rec *models.SubscriptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, *rec)
	return nil
}

func (f *fakeSubStore) lastUpsert() *models.SubscriptionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.upserts) == 0 {
		return nil
	}
	rec := f.upserts[len(f.upserts)-1]
	return &rec
}
