package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// brandDoc stores the normalized name next to the brand so the unique
// (traderId, nameKey) index can enforce case-insensitive names.
type brandDoc struct {
	domain.Brand `bson:",inline"`
	NameKey      string `bson:"nameKey"`
}

func newBrandDoc(b *domain.Brand) brandDoc {
	return brandDoc{Brand: *b, NameKey: domain.BrandKey(b.Name)}
}

// BrandRepository implements ports.BrandRepository.
type BrandRepository struct {
	col *mongo.Collection
}

func NewBrandRepository(db *mongo.Database) *BrandRepository {
	return &BrandRepository{col: db.Collection(collectionBrands)}
}

func (r *BrandRepository) Create(ctx context.Context, b *domain.Brand) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if b.ID == "" {
		b.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, newBrandDoc(b)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewValidationError("name", domain.ErrDuplicateBrand.Error())
		}
		return fmt.Errorf("insert brand: %w", err)
	}
	return nil
}

func (r *BrandRepository) FindByID(ctx context.Context, id string) (*domain.Brand, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc brandDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBrandNotFound
		}
		return nil, fmt.Errorf("find brand: %w", err)
	}
	return &doc.Brand, nil
}

func (r *BrandRepository) NameTaken(ctx context.Context, traderID, name, excludeID string) (bool, error) {
	filter := bson.M{"traderId": traderID, "nameKey": domain.BrandKey(name)}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return exists(ctx, r.col, filter)
}

func (r *BrandRepository) Update(ctx context.Context, b *domain.Brand) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, newBrandDoc(b))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewValidationError("name", domain.ErrDuplicateBrand.Error())
		}
		return fmt.Errorf("update brand: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBrandNotFound
	}
	return nil
}

func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBrandNotFound
	}
	return nil
}

func (r *BrandRepository) List(ctx context.Context, f ports.BrandFilter) ([]*domain.Brand, int64, error) {
	filter := scoped(bson.M{}, f.Scope)
	if f.Search != "" {
		filter["name"] = contains(f.Search)
	}
	docs, total, err := findPage[brandDoc](ctx, r.col, filter, f.Page, bson.D{{Key: "name", Value: 1}})
	if err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	brands := make([]*domain.Brand, 0, len(docs))
	for _, d := range docs {
		brands = append(brands, &d.Brand)
	}
	return brands, total, nil
}

// ItemRepository implements ports.ItemRepository. Items keep a reference to
// their brand; the brand name is read from the brands collection so renames
// show up everywhere.
type ItemRepository struct {
	col    *mongo.Collection
	brands *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems), brands: db.Collection(collectionBrands)}
}

func (r *ItemRepository) Create(ctx context.Context, it *domain.Item) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if it.ID == "" {
		it.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, it); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var it domain.Item
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&it); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	if err := r.fillBrandNames(ctx, []*domain.Item{&it}); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	var items []*domain.Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	out := make(map[string]*domain.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *ItemRepository) Update(ctx context.Context, it *domain.Item) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": it.ID}, it)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, int64, error) {
	filter := scoped(bson.M{}, f.Scope)
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.BrandID != "" {
		filter["brand.id"] = f.BrandID
	}
	if f.Search != "" {
		filter["$or"] = anyOf(f.Search, "name", "category")
	}
	items, total, err := findPage[domain.Item](ctx, r.col, filter, f.Page, bson.D{{Key: "name", Value: 1}})
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	if err := r.fillBrandNames(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ItemRepository) Categories(ctx context.Context, scope domain.Scope) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := r.col.Distinct(ctx, "category", scoped(bson.M{}, scope))
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *ItemRepository) fillBrandNames(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Brand.ID)
	}

	cur, err := r.brands.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("find item brands: %w", err)
	}
	var docs []brandDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode item brands: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Name
	}
	for _, it := range items {
		if name, ok := names[it.Brand.ID]; ok {
			it.Brand.Name = name
		}
	}
	return nil
}
