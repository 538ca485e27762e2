package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appcfg "backend/config"
)

// Entitlement is one entry of the billing platform's entitlement map.
type Entitlement struct {
	ProductID string
	ExpiresAt *time.Time
	Platform  string // "ios" | "android"
}

// IsActive reports whether the entitlement currently grants access.
func (e *Entitlement) IsActive(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// CustomerInfo is the billing platform's view of one app user.
type CustomerInfo struct {
	AppUserID    string
	Entitlements map[string]Entitlement
}

// ActiveEntitlement returns the named entitlement if currently active.
func (ci *CustomerInfo) ActiveEntitlement(name string, now time.Time) (*Entitlement, bool) {
	e, ok := ci.Entitlements[name]
	if !ok || !e.IsActive(now) {
		return nil, false
	}
	return &e, true
}

// BillingClient wraps the subscription billing platform. Entitlement state
// from here is device-level and never sufficient on its own; the
// subscription service reconciles it against the user_subscriptions table.
type BillingClient interface {
	GetCustomerInfo(ctx context.Context, userID uint) (*CustomerInfo, error)
	Purchase(ctx context.Context, userID uint, productID, receipt, platform string) error
	RestorePurchases(ctx context.Context, userID uint) (*CustomerInfo, error)
}

// RevenueCatClient talks to the RevenueCat REST v1 API.
type RevenueCatClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRevenueCatClient(cfg *appcfg.Config) *RevenueCatClient {
	return &RevenueCatClient{
		baseURL: strings.TrimRight(cfg.RevenueCatBaseURL, "/"),
		apiKey:  cfg.RevenueCatAPIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type rcEntitlement struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	ProductIdentifier string     `json:"product_identifier"`
	Store             string     `json:"store"`
}

type rcSubscriber struct {
	Subscriber struct {
		OriginalAppUserID string                   `json:"original_app_user_id"`
		Entitlements      map[string]rcEntitlement `json:"entitlements"`
	} `json:"subscriber"`
}

func (c *RevenueCatClient) GetCustomerInfo(ctx context.Context, userID uint) (*CustomerInfo, error) {
	var sub rcSubscriber
	if err := c.do(ctx, http.MethodGet, "/subscribers/"+appUserID(userID), nil, &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	info := &CustomerInfo{
		AppUserID:    sub.Subscriber.OriginalAppUserID,
		Entitlements: make(map[string]Entitlement, len(sub.Subscriber.Entitlements)),
	}
	for name, e := range sub.Subscriber.Entitlements {
		info.Entitlements[name] = Entitlement{
			ProductID: e.ProductIdentifier,
			ExpiresAt: e.ExpiresDate,
			Platform:  storePlatform(e.Store),
		}
	}
	return info, nil
}

func (c *RevenueCatClient) Purchase(ctx context.Context, userID uint, productID, receipt, platform string) error {
	body := map[string]string{
		"app_user_id": appUserID(userID),
		"fetch_token": receipt,
		"product_id":  productID,
		"platform":    platform,
	}
	if err := c.do(ctx, http.MethodPost, "/receipts", body, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	return nil
}

func (c *RevenueCatClient) RestorePurchases(ctx context.Context, userID uint) (*CustomerInfo, error) {
	// RevenueCat re-evaluates receipts server side; the refreshed
	// subscriber view is the restore result.
	return c.GetCustomerInfo(ctx, userID)
}

func (c *RevenueCatClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("revenuecat: %s %s -> %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// appUserID maps our user id onto RevenueCat's app_user_id namespace.
func appUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func storePlatform(store string) string {
	switch strings.ToLower(store) {
	case "app_store", "mac_app_store":
		return "ios"
	case "play_store":
		return "android"
	default:
		return store
	}
}
