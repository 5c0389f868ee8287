package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
	"github.com/crazybooks/storefront/pkg/retry"
)

var _ port.CartManager = (*CartService)(nil)
var _ port.CustomerSignIn = (*CartService)(nil)

const defaultTaxCategoryName = "Default Tax Category"

// conflictAttempts bounds the optimistic-concurrency policy: one
// automatic retry after a version conflict, a second conflict
// propagates.
const conflictAttempts = 2

// CartUpdateFn observes every successful cart mutation with the fresh
// cart state.
type CartUpdateFn func(sessionID string, c domain.Cart)

type sessionState struct {
	cart       *domain.Cart
	customerID string
}

// CartService guarantees a single authoritative cart per session and
// folds an anonymous cart into a newly authenticated customer's cart.
//
// All session state that was process-global in earlier storefronts
// lives on this struct so tests get isolation from fresh instances.
type CartService struct {
	carts  port.CartStore
	taxes  port.TaxCategoryStore
	promos port.PromoCodeProvider
	auth   port.CustomerAuthenticator
	refs   port.CartRefStore
	events port.CartEventsProducer

	initGroup singleflight.Group

	mu        sync.Mutex
	sessions  map[string]*sessionState
	observers []CartUpdateFn

	taxMu        sync.Mutex
	defaultTaxID string
	knownTaxed   map[string]struct{}
}

type CartServiceDeps struct {
	Carts  port.CartStore
	Taxes  port.TaxCategoryStore
	Promos port.PromoCodeProvider
	Auth   port.CustomerAuthenticator
	Refs   port.CartRefStore
	Events port.CartEventsProducer
}

func NewCart(deps CartServiceDeps) *CartService {
	return &CartService{
		carts:      deps.Carts,
		taxes:      deps.Taxes,
		promos:     deps.Promos,
		auth:       deps.Auth,
		refs:       deps.Refs,
		events:     deps.Events,
		sessions:   make(map[string]*sessionState),
		knownTaxed: make(map[string]struct{}),
	}
}

func (s *CartService) session(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

// GetOrCreateCart returns the session's cached cart, initializing one
// when absent. Concurrent callers share a single in-flight
// initialization per session, so at most one create request is issued
// even when several consumers ask for the cart at startup.
func (s *CartService) GetOrCreateCart(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	const op = "CartService.GetOrCreateCart"

	if c, ok := s.CurrentCart(sessionID); ok {
		return c, nil
	}

	v, err, _ := s.initGroup.Do(sessionID, func() (any, error) {
		if c, ok := s.CurrentCart(sessionID); ok {
			return c, nil
		}
		c, err := s.initializeCart(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		s.replaceCart(sessionID, c)
		return c, nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return v.(domain.Cart), nil
}

// initializeCart resolves the session's cart: the customer's active
// cart when authenticated, otherwise the remembered anonymous cart.
// A stale anonymous reference is cleared and replaced by a fresh cart;
// any fetch failure falls back to creating a new cart.
func (s *CartService) initializeCart(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	const op = "CartService.initializeCart"
	log := slog.With("op", op, "session", sessionID)

	st := s.session(sessionID)

	if st.customerID != "" {
		c, err := s.carts.ActiveCartOfCustomer(ctx, st.customerID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("failed to fetch customer cart, creating new one", "err", err)
		}
		return s.carts.CreateCustomerCart(ctx, st.customerID)
	}

	if cartID, err := s.refs.Get(ctx, sessionID); err == nil {
		c, err := s.carts.CartByID(ctx, cartID)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("stale anonymous cart reference, clearing", "cartID", cartID)
			if err := s.refs.Clear(ctx, sessionID); err != nil {
				log.Warn("failed to clear cart reference", "err", err)
			}
		} else {
			log.Warn("failed to fetch anonymous cart, creating new one", "err", err)
		}
	}

	c, err := s.carts.CreateAnonymousCart(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.refs.Set(ctx, sessionID, c.ID); err != nil {
		log.Warn("failed to remember anonymous cart", "err", err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventCreated, CartID: c.ID, SessionID: sessionID,
	})
	return c, nil
}

func (s *CartService) AddProduct(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.Cart, error) {
	const op = "CartService.AddProduct"

	c, err := s.mutate(ctx, sessionID, []port.CartAction{{
		Action:    port.ActionAddLineItem,
		ProductID: productID,
		Quantity:  quantity,
	}})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventProductAdded, CartID: c.ID,
		SessionID: sessionID, ProductID: productID, Quantity: quantity,
	})
	return c, nil
}

func (s *CartService) RemoveLineItem(
	ctx context.Context, sessionID, lineItemID string,
) (domain.Cart, error) {
	const op = "CartService.RemoveLineItem"

	c, err := s.mutate(ctx, sessionID, []port.CartAction{{
		Action:     port.ActionRemoveLineItem,
		LineItemID: lineItemID,
	}})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventProductRemoved, CartID: c.ID,
		SessionID: sessionID,
	})
	return c, nil
}

func (s *CartService) UpdateQuantity(
	ctx context.Context, sessionID, lineItemID string, quantity int,
) (domain.Cart, error) {
	const op = "CartService.UpdateQuantity"

	c, err := s.mutate(ctx, sessionID, []port.CartAction{{
		Action:     port.ActionChangeQuantity,
		LineItemID: lineItemID,
		Quantity:   quantity,
	}})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventQuantityChanged, CartID: c.ID,
		SessionID: sessionID, Quantity: quantity,
	})
	return c, nil
}

func (s *CartService) ClearCart(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	const op = "CartService.ClearCart"

	cur, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	actions := make([]port.CartAction, 0, len(cur.Items))
	for _, li := range cur.Items {
		actions = append(actions, port.CartAction{
			Action:     port.ActionRemoveLineItem,
			LineItemID: li.ID,
		})
	}
	if len(actions) == 0 {
		return cur, nil
	}

	c, err := s.mutate(ctx, sessionID, actions)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventCleared, CartID: c.ID, SessionID: sessionID,
	})
	return c, nil
}

// ApplyPromoCode validates the code and attaches it to the cart.
// Last applied wins: a previously applied code is removed server-side
// in the same update, so the remote cart stays the single source of
// truth for the active promo.
func (s *CartService) ApplyPromoCode(
	ctx context.Context, sessionID, code string,
) (domain.Cart, error) {
	const op = "CartService.ApplyPromoCode"

	promo, err := s.promos.PromoCodeByCode(ctx, code)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if !promo.Usable(time.Now()) {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidPromo)
	}

	cur, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	var actions []port.CartAction
	if cur.Promo != nil {
		actions = append(actions, port.CartAction{
			Action:  port.ActionRemoveDiscountCode,
			PromoID: cur.Promo.ID,
		})
	}
	actions = append(actions, port.CartAction{
		Action:    port.ActionAddDiscountCode,
		PromoCode: code,
	})

	c, err := s.mutate(ctx, sessionID, actions)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventPromoApplied, CartID: c.ID, SessionID: sessionID,
	})
	return c, nil
}

func (s *CartService) RemovePromoCode(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	const op = "CartService.RemovePromoCode"

	cur, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if cur.Promo == nil {
		return cur, nil
	}

	c, err := s.mutate(ctx, sessionID, []port.CartAction{{
		Action:  port.ActionRemoveDiscountCode,
		PromoID: cur.Promo.ID,
	}})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventPromoRemoved, CartID: c.ID, SessionID: sessionID,
	})
	return c, nil
}

// mutate applies one logical cart update with the last observed
// version. A version conflict invalidates the cache and retries the
// same actions exactly once against the refreshed state.
func (s *CartService) mutate(
	ctx context.Context, sessionID string, actions []port.CartAction,
) (domain.Cart, error) {
	cfg := retry.RetryConfig{
		MaxAttempts: conflictAttempts,
		Backoff:     retry.LinearBackoff(0),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, domain.ErrConflict)
		},
	}

	c, err := retry.DoWithResult(ctx, cfg, func() (domain.Cart, error) {
		cur, err := s.GetOrCreateCart(ctx, sessionID)
		if err != nil {
			return domain.Cart{}, err
		}

		updated, err := s.carts.UpdateCart(ctx, cur.ID, cur.Version, actions)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.ClearCartCache(sessionID)
			}
			return domain.Cart{}, err
		}
		return updated, nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	s.replaceCart(sessionID, c)
	return c, nil
}

// Login authenticates the customer, binds the session to it and folds
// the session's anonymous cart into the customer's cart. The merge is
// fire-and-forget: its failures are logged, never surfaced to the
// sign-in caller.
func (s *CartService) Login(
	ctx context.Context, sessionID, email, password string,
) (string, error) {
	const op = "CartService.Login"

	customerID, err := s.auth.AuthenticateCustomer(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	st.customerID = customerID
	s.mu.Unlock()

	s.MergeAnonymousCartOnLogin(ctx, sessionID)
	return customerID, nil
}

// MergeAnonymousCartOnLogin folds the remembered anonymous cart into
// the authenticated customer's cart: every merged product is first
// given a tax category (per-product failures are skipped), the line
// items are added in one combined update, then the anonymous cart is
// deleted. The anonymous reference is cleared unconditionally so a
// broken cart cannot cause merge loops on the next login.
func (s *CartService) MergeAnonymousCartOnLogin(ctx context.Context, sessionID string) {
	const op = "CartService.MergeAnonymousCartOnLogin"
	log := slog.With("op", op, "session", sessionID)

	st := s.session(sessionID)
	if st.customerID == "" {
		log.Warn("merge requested for unauthenticated session")
		return
	}

	anonID, err := s.refs.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("failed to read anonymous cart reference", "err", err)
		}
		s.ClearCartCache(sessionID)
		return
	}

	defer func() {
		if err := s.refs.Clear(ctx, sessionID); err != nil {
			log.Warn("failed to clear anonymous cart reference", "err", err)
		}
	}()

	// the session cart is re-resolved as the customer cart from here on
	s.ClearCartCache(sessionID)

	anonCart, err := s.carts.CartByID(ctx, anonID)
	if err != nil {
		log.Error("failed to fetch anonymous cart, skipping merge", "err", err)
		return
	}
	if len(anonCart.Items) == 0 {
		if err := s.carts.DeleteCart(ctx, anonCart.ID, anonCart.Version); err != nil {
			log.Warn("failed to delete empty anonymous cart", "err", err)
		}
		return
	}

	for _, li := range anonCart.Items {
		if err := s.ensureProductTaxCategory(ctx, li.ProductID); err != nil {
			log.Warn("failed to ensure tax category, item merged without it",
				"productID", li.ProductID, "err", err)
		}
	}

	if _, err := s.GetOrCreateCart(ctx, sessionID); err != nil {
		log.Error("failed to resolve customer cart, skipping merge", "err", err)
		return
	}

	actions := make([]port.CartAction, 0, len(anonCart.Items))
	for _, li := range anonCart.Items {
		actions = append(actions, port.CartAction{
			Action:    port.ActionAddLineItem,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
		})
	}

	merged, err := s.mutate(ctx, sessionID, actions)
	if err != nil {
		log.Error("failed to merge anonymous cart items", "err", err)
		return
	}

	if err := s.carts.DeleteCart(ctx, anonCart.ID, anonCart.Version); err != nil {
		log.Warn("failed to delete merged anonymous cart", "err", err)
	}

	s.emitEvent(ctx, domain.CartEvent{
		Type: domain.CartEventMerged, CartID: merged.ID,
		SessionID: sessionID, CustomerID: st.customerID,
	})
	log.Info("anonymous cart merged", "items", len(anonCart.Items))
}

// ensureProductTaxCategory assigns the default zero-rate tax category
// to the product unless it already carries one. The default category
// id is cached after the first lookup or create.
func (s *CartService) ensureProductTaxCategory(ctx context.Context, productID string) error {
	s.taxMu.Lock()
	_, known := s.knownTaxed[productID]
	s.taxMu.Unlock()
	if known {
		return nil
	}

	id, err := s.taxes.ProductTaxCategory(ctx, productID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if id == "" {
		def, err := s.defaultTaxCategory(ctx)
		if err != nil {
			return err
		}
		if err := s.taxes.SetProductTaxCategory(ctx, productID, def); err != nil {
			return err
		}
	}

	s.taxMu.Lock()
	s.knownTaxed[productID] = struct{}{}
	s.taxMu.Unlock()
	return nil
}

func (s *CartService) defaultTaxCategory(ctx context.Context) (string, error) {
	s.taxMu.Lock()
	defer s.taxMu.Unlock()

	if s.defaultTaxID != "" {
		return s.defaultTaxID, nil
	}

	id, err := s.taxes.TaxCategoryByName(ctx, defaultTaxCategoryName)
	if errors.Is(err, domain.ErrNotFound) {
		id, err = s.taxes.CreateTaxCategory(ctx, defaultTaxCategoryName)
	}
	if err != nil {
		return "", err
	}

	s.defaultTaxID = id
	return id, nil
}

// OnCartUpdate registers an observer for successful cart mutations.
// Sessions with an already cached cart are replayed immediately so a
// late registration never observes stale state.
func (s *CartService) OnCartUpdate(cb CartUpdateFn) {
	s.mu.Lock()
	s.observers = append(s.observers, cb)
	type cached struct {
		sessionID string
		cart      domain.Cart
	}
	var replay []cached
	for id, st := range s.sessions {
		if st.cart != nil {
			replay = append(replay, cached{id, *st.cart})
		}
	}
	s.mu.Unlock()

	for _, r := range replay {
		notifyOne(cb, r.sessionID, r.cart)
	}
}

func (s *CartService) CurrentCart(sessionID string) (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.cart == nil {
		return domain.Cart{}, false
	}
	return *st.cart, true
}

func (s *CartService) ClearCartCache(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionID]; ok {
		st.cart = nil
	}
}

func (s *CartService) replaceCart(sessionID string, c domain.Cart) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	st.cart = &c
	observers := make([]CartUpdateFn, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, cb := range observers {
		notifyOne(cb, sessionID, c)
	}
}

// notifyOne shields the fan-out from a panicking observer: one broken
// consumer must not block the others.
func notifyOne(cb CartUpdateFn, sessionID string, c domain.Cart) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cart update observer panicked", "recovered", r)
		}
	}()
	cb(sessionID, c)
}

func (s *CartService) emitEvent(ctx context.Context, e domain.CartEvent) {
	const op = "CartService.emitEvent"

	if s.events == nil {
		return
	}
	e.Occurred = time.Now().UTC()

	if st := s.session(e.SessionID); e.CustomerID == "" {
		e.CustomerID = st.customerID
	}

	if err := s.events.ProduceCartEvent(ctx, e); err != nil {
		slog.With("op", op).Warn("failed to produce cart event",
			"type", e.Type, "err", err)
	}
}
