package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/matijepekovic/pricer-api/internal/common"
	"github.com/matijepekovic/pricer-api/internal/pricing"
	"github.com/matijepekovic/pricer-api/internal/store"
)

const (
	keyProducts    = "catalog/products"
	keyMultipliers = "catalog/multipliers"
	keySettings    = "catalog/settings"
)

// Settings holds catalog-level defaults applied to new quotes.
type Settings struct {
	CompanyName    string          `json:"companyName"`
	DefaultTaxRate decimal.Decimal `json:"defaultTaxRate"`
}

// Service owns the product and multiplier catalogs. Lookup maps handed
// out are copies; a built quote never holds references back into the
// live catalog.
type Service struct {
	store    store.Store
	validate *validator.Validate
	logger   zerolog.Logger
	defaults Settings

	// Guards read-modify-write cycles on the catalog documents.
	mu sync.Mutex
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store           store.Store
	Logger          zerolog.Logger
	DefaultSettings Settings
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{
		store:    cfg.Store,
		validate: validator.New(),
		logger:   cfg.Logger,
		defaults: cfg.DefaultSettings,
	}, nil
}

// ProductInput is the payload for creating or updating a product.
type ProductInput struct {
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	UnitType       string          `json:"unitType" validate:"required"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	Category       string          `json:"category"`
	IsDiscountable bool            `json:"isDiscountable"`
}

// MultiplierInput is the payload for creating or updating a multiplier.
type MultiplierInput struct {
	Name           string          `json:"name" validate:"required"`
	Type           string          `json:"type" validate:"required,oneof=percentage fixed_per_unit"`
	Value          decimal.Decimal `json:"value"`
	IsDiscountable bool            `json:"isDiscountable"`
}

// ProductMap returns the product catalog keyed by id.
func (s *Service) ProductMap(ctx context.Context) (map[string]pricing.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProducts(ctx)
}

// ListProducts returns the catalog sorted by name.
func (s *Service) ListProducts(ctx context.Context) ([]pricing.Product, error) {
	byID, err := s.ProductMap(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]pricing.Product, 0, len(byID))
	for _, p := range byID {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// CreateProduct validates the input and adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (pricing.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return pricing.Product{}, validationError("invalid product", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.loadProducts(ctx)
	if err != nil {
		return pricing.Product{}, err
	}
	p := pricing.Product{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Description:    in.Description,
		UnitType:       in.UnitType,
		BasePrice:      in.BasePrice,
		Category:       in.Category,
		IsDiscountable: in.IsDiscountable,
	}
	products[p.ID] = p
	if err := s.store.Save(ctx, keyProducts, products); err != nil {
		return pricing.Product{}, fmt.Errorf("save products: %w", err)
	}
	s.logger.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return p, nil
}

// UpdateProduct replaces an existing product's fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (pricing.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return pricing.Product{}, validationError("invalid product", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.loadProducts(ctx)
	if err != nil {
		return pricing.Product{}, err
	}
	existing, ok := products[id]
	if !ok {
		return pricing.Product{}, notFound("product not found")
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.UnitType = in.UnitType
	existing.BasePrice = in.BasePrice
	existing.Category = in.Category
	existing.IsDiscountable = in.IsDiscountable
	products[id] = existing
	if err := s.store.Save(ctx, keyProducts, products); err != nil {
		return pricing.Product{}, fmt.Errorf("save products: %w", err)
	}
	return existing, nil
}

// DeleteProduct removes a product from the catalog. Built quotes keep
// their snapshots and are unaffected.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}
	if _, ok := products[id]; !ok {
		return notFound("product not found")
	}
	delete(products, id)
	if err := s.store.Save(ctx, keyProducts, products); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	return nil
}

// MultiplierMap returns the multiplier catalog keyed by id.
func (s *Service) MultiplierMap(ctx context.Context) (map[string]pricing.Multiplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMultipliers(ctx)
}

// ListMultipliers returns the multiplier catalog sorted by name.
func (s *Service) ListMultipliers(ctx context.Context) ([]pricing.Multiplier, error) {
	byID, err := s.MultiplierMap(ctx)
	if err != nil {
		return nil, err
	}
	multipliers := make([]pricing.Multiplier, 0, len(byID))
	for _, m := range byID {
		multipliers = append(multipliers, m)
	}
	sort.Slice(multipliers, func(i, j int) bool { return multipliers[i].Name < multipliers[j].Name })
	return multipliers, nil
}

// CreateMultiplier validates the input and adds a multiplier to the catalog.
func (s *Service) CreateMultiplier(ctx context.Context, in MultiplierInput) (pricing.Multiplier, error) {
	if err := s.validateMultiplier(in); err != nil {
		return pricing.Multiplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	multipliers, err := s.loadMultipliers(ctx)
	if err != nil {
		return pricing.Multiplier{}, err
	}
	m := pricing.Multiplier{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Type:           pricing.MultiplierType(in.Type),
		Value:          in.Value,
		IsDiscountable: in.IsDiscountable,
	}
	multipliers[m.ID] = m
	if err := s.store.Save(ctx, keyMultipliers, multipliers); err != nil {
		return pricing.Multiplier{}, fmt.Errorf("save multipliers: %w", err)
	}
	s.logger.Info().Str("multiplier_id", m.ID).Str("name", m.Name).Msg("multiplier created")
	return m, nil
}

// UpdateMultiplier replaces an existing multiplier's fields.
func (s *Service) UpdateMultiplier(ctx context.Context, id string, in MultiplierInput) (pricing.Multiplier, error) {
	if err := s.validateMultiplier(in); err != nil {
		return pricing.Multiplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	multipliers, err := s.loadMultipliers(ctx)
	if err != nil {
		return pricing.Multiplier{}, err
	}
	existing, ok := multipliers[id]
	if !ok {
		return pricing.Multiplier{}, notFound("multiplier not found")
	}
	existing.Name = in.Name
	existing.Type = pricing.MultiplierType(in.Type)
	existing.Value = in.Value
	existing.IsDiscountable = in.IsDiscountable
	multipliers[id] = existing
	if err := s.store.Save(ctx, keyMultipliers, multipliers); err != nil {
		return pricing.Multiplier{}, fmt.Errorf("save multipliers: %w", err)
	}
	return existing, nil
}

// DeleteMultiplier removes a multiplier. Stale assignment state pointing
// at it is dropped by the resolver on the next rebuild.
func (s *Service) DeleteMultiplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	multipliers, err := s.loadMultipliers(ctx)
	if err != nil {
		return err
	}
	if _, ok := multipliers[id]; !ok {
		return notFound("multiplier not found")
	}
	delete(multipliers, id)
	if err := s.store.Save(ctx, keyMultipliers, multipliers); err != nil {
		return fmt.Errorf("save multipliers: %w", err)
	}
	return nil
}

// Settings returns the stored catalog settings, falling back to the
// configured defaults when nothing has been saved yet.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	var settings Settings
	found, err := s.store.Load(ctx, keySettings, &settings)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !found {
		return s.defaults, nil
	}
	return settings, nil
}

// SaveSettings validates and persists catalog settings.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) error {
	if settings.DefaultTaxRate.IsNegative() {
		return validationError("default tax rate must not be negative", nil)
	}
	if err := s.store.Save(ctx, keySettings, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Service) validateMultiplier(in MultiplierInput) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError("invalid multiplier", err)
	}
	if in.Value.IsNegative() {
		return validationError("multiplier value must not be negative", nil)
	}
	return nil
}

func (s *Service) loadProducts(ctx context.Context) (map[string]pricing.Product, error) {
	products := make(map[string]pricing.Product)
	if _, err := s.store.Load(ctx, keyProducts, &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

func (s *Service) loadMultipliers(ctx context.Context) (map[string]pricing.Multiplier, error) {
	multipliers := make(map[string]pricing.Multiplier)
	if _, err := s.store.Load(ctx, keyMultipliers, &multipliers); err != nil {
		return nil, fmt.Errorf("load multipliers: %w", err)
	}
	return multipliers, nil
}

func validationError(message string, err error) *common.AppError {
	return &common.AppError{Code: "VALIDATION", Message: message, HTTPStatus: http.StatusUnprocessableEntity, Err: err}
}

func notFound(message string) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound}
}
