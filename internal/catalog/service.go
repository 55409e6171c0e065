package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/larder/internal/model"
)

// Gateway is the persistence the catalog reads from and writes to.
type Gateway interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context, subscriptionID int64, q model.Query) (model.ItemPage, error)
	ListItemsByID(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error)
	ListItemsByTag(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error)
	ListItemsByGroup(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error)
	ListLowQuantityItems(ctx context.Context, subscriptionID int64, threshold int, q model.Query) (model.ItemPage, error)
	Search(ctx context.Context, subscriptionID int64, q model.Query) (model.SearchPage, error)
	SearchLowQuantity(ctx context.Context, subscriptionID int64, threshold int, q model.Query) (model.SearchPage, error)
	UpsertItem(ctx context.Context, item model.Item) (int64, error)

	ListTags(ctx context.Context, subscriptionID int64) ([]model.Tag, error)
	ListTagsWithCounts(ctx context.Context, subscriptionID int64, q model.Query) ([]model.Tag, int, error)
	UpsertTag(ctx context.Context, tag model.Tag) (*model.Tag, error)

	ListGroups(ctx context.Context, subscriptionID int64) ([]model.Group, error)
	ListGroupsWithCounts(ctx context.Context, subscriptionID int64, q model.Query) ([]model.Group, int, error)
	UpsertGroup(ctx context.Context, group model.Group) (*model.Group, error)

	ListItemTags(ctx context.Context, subscriptionID, itemID int64) ([]model.ItemAttribute, error)
	ListItemGroups(ctx context.Context, subscriptionID, itemID int64) ([]model.ItemAttribute, error)
	UpsertItemTags(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) error
	UpsertItemGroups(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) error

	ListShoppingLists(ctx context.Context, subscriptionID int64, q model.Query) ([]model.ShoppingList, int, error)
	UpsertShoppingList(ctx context.Context, list model.ShoppingList) (*model.ShoppingList, error)
	ListShoppingListItems(ctx context.Context, subscriptionID, listID int64, q model.Query) (model.ShoppingListItemPage, error)
	UpsertShoppingListItems(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) error
}

// Service serves catalog reads and writes. Every method converts persistence
// errors into an unsuccessful Response; nothing is retried.
type Service struct {
	gw                   Gateway
	logger               *slog.Logger
	listCatalogSize      int
	lowQuantityThreshold int
}

// NewService returns a Service. listCatalogSize bounds the shopping-list
// catalog merged into GetItem and returned by Session. Items whose amount is
// at or below lowQuantityThreshold are low on stock.
func NewService(gw Gateway, logger *slog.Logger, listCatalogSize, lowQuantityThreshold int) *Service {
	if listCatalogSize < 1 || listCatalogSize > model.MaxPageSize {
		listCatalogSize = model.MaxPageSize
	}
	return &Service{
		gw:                   gw,
		logger:               logger,
		listCatalogSize:      listCatalogSize,
		lowQuantityThreshold: max(lowQuantityThreshold, 0),
	}
}

// Session returns the tag, group and shopping-list catalogs a client loads
// when it starts.
func (s *Service) Session(ctx context.Context, subscriptionID int64) model.Response[*model.Session] {
	c, err := s.fetchCatalogs(ctx, subscriptionID)
	if err != nil {
		s.logger.Error("session catalogs", "subscription_id", subscriptionID, "error", err)
		return model.Failed[*model.Session]()
	}
	return model.OK(&model.Session{
		SubscriptionID: subscriptionID,
		Tags:           nonNil(c.tags),
		Groups:         nonNil(c.groups),
		ShoppingLists:  nonNil(c.lists),
	})
}

type itemCatalogs struct {
	tags   []model.Tag
	groups []model.Group
	lists  []model.ShoppingList
}

// fetchCatalogs loads the three subscription catalogs concurrently. Each
// branch writes only its own field, so a failed branch leaves the others
// intact; the first error is returned after all three have finished.
func (s *Service) fetchCatalogs(ctx context.Context, subscriptionID int64) (itemCatalogs, error) {
	var c itemCatalogs
	var g errgroup.Group

	g.Go(func() error {
		tags, err := s.gw.ListTags(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("tag catalog: %w", err)
		}
		c.tags = tags
		return nil
	})
	g.Go(func() error {
		groups, err := s.gw.ListGroups(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("group catalog: %w", err)
		}
		c.groups = groups
		return nil
	})
	g.Go(func() error {
		q := model.Query{Page: model.Page{Number: 1, Size: s.listCatalogSize}, SortBy: "name", SortAsc: true}
		lists, _, err := s.gw.ListShoppingLists(ctx, subscriptionID, q)
		if err != nil {
			return fmt.Errorf("shopping list catalog: %w", err)
		}
		c.lists = lists
		return nil
	})

	return c, g.Wait()
}

// GetItem returns one item with the full tag, group and shopping-list
// catalogs of its subscription, each entry flagged with whether the item is
// associated with it. A missing item, or one owned by another subscription,
// is a successful response with a nil item.
func (s *Service) GetItem(ctx context.Context, subscriptionID, itemID int64) model.Response[*model.Item] {
	item, err := s.gw.GetItem(ctx, itemID)
	if err != nil {
		s.logger.Error("get item", "item_id", itemID, "error", err)
		return model.Failed[*model.Item]()
	}
	if item == nil || item.SubscriptionID != subscriptionID {
		return model.OK[*model.Item](nil)
	}

	c, err := s.fetchCatalogs(ctx, subscriptionID)
	if err != nil {
		s.logger.Error("get item catalogs", "item_id", itemID, "error", err)
		return model.Failed[*model.Item]()
	}

	merged := *item
	merged.Tags = MergeAttributes(c.tags, item.Tags)
	merged.Groups = MergeAttributes(c.groups, item.Groups)
	merged.ShoppingLists = MergeShoppingLists(c.lists, item.ShoppingLists)
	return model.OK(&merged)
}

// ItemCollection returns one page of the subscription's items with their tags
// and groups.
func (s *Service) ItemCollection(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	q.Page = q.Page.Normalize()
	page, err := s.gw.ListItems(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error("list items", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Item]()
	}
	items := AttachAttributes(page.Items, page.ItemTags, page.ItemGroups, subscriptionID)
	return model.Paged(items, withTotal(q.Page, page.Total))
}

// LowQuantityItems returns one page of the items running low, with their tags
// and groups.
func (s *Service) LowQuantityItems(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	q.Page = q.Page.Normalize()
	page, err := s.gw.ListLowQuantityItems(ctx, subscriptionID, s.lowQuantityThreshold, q)
	if err != nil {
		s.logger.Error("list low quantity items", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Item]()
	}
	items := AttachAttributes(page.Items, page.ItemTags, page.ItemGroups, subscriptionID)
	return model.Paged(items, withTotal(q.Page, page.Total))
}

// ItemsByID returns the page of items whose ids are listed in q.IDs.
func (s *Service) ItemsByID(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	return s.itemsByAttribute(ctx, "items by id", s.gw.ListItemsByID, subscriptionID, q)
}

// ItemsByTag returns the page of items tagged with any tag in q.IDs.
func (s *Service) ItemsByTag(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	return s.itemsByAttribute(ctx, "items by tag", s.gw.ListItemsByTag, subscriptionID, q)
}

// ItemsByGroup returns the page of items in any group in q.IDs.
func (s *Service) ItemsByGroup(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	return s.itemsByAttribute(ctx, "items by group", s.gw.ListItemsByGroup, subscriptionID, q)
}

type attributeLookup func(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error)

func (s *Service) itemsByAttribute(ctx context.Context, op string, lookup attributeLookup, subscriptionID int64, q model.Query) model.Response[[]model.Item] {
	q.Page = q.Page.Normalize()
	if len(q.IDs) == 0 {
		return model.Paged([]model.Item{}, withTotal(q.Page, 0))
	}
	page, err := lookup(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error(op, "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Item]()
	}
	items := AttachCatalogAttributes(page.Items, page.ItemTags, page.ItemGroups, page.Tags, page.Groups)
	return model.Paged(items, withTotal(q.Page, page.Total))
}

// Search returns weighted matches of q.Term across items, groups, lists and
// tags. Item hits carry their tags and groups.
func (s *Service) Search(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.SearchResult] {
	q.Page = q.Page.Normalize()
	page, err := s.gw.Search(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error("search", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.SearchResult]()
	}
	results := AttachSearchAttributes(page.Results, page.ItemTags, page.ItemGroups, page.Tags, page.Groups)
	return model.Paged(results, withTotal(q.Page, page.Total))
}

// LowQuantitySearch returns the items running low as search results.
func (s *Service) LowQuantitySearch(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.SearchResult] {
	q.Page = q.Page.Normalize()
	page, err := s.gw.SearchLowQuantity(ctx, subscriptionID, s.lowQuantityThreshold, q)
	if err != nil {
		s.logger.Error("low quantity search", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.SearchResult]()
	}
	results := AttachSearchAttributes(page.Results, page.ItemTags, page.ItemGroups, page.Tags, page.Groups)
	return model.Paged(results, withTotal(q.Page, page.Total))
}

// UpsertItem creates or updates an item and its tag, group and shopping-list
// associations, then returns the item as GetItem would.
func (s *Service) UpsertItem(ctx context.Context, subscriptionID int64, item model.Item) model.Response[*model.Item] {
	item.SubscriptionID = subscriptionID
	if item.ID > 0 {
		existing, err := s.gw.GetItem(ctx, item.ID)
		if err != nil {
			s.logger.Error("upsert item lookup", "item_id", item.ID, "error", err)
			return model.Failed[*model.Item]()
		}
		if existing == nil || existing.SubscriptionID != subscriptionID {
			return model.OK[*model.Item](nil)
		}
	}

	id, err := s.gw.UpsertItem(ctx, item)
	if err != nil {
		s.logger.Error("upsert item", "item_id", item.ID, "error", err)
		return model.Failed[*model.Item]()
	}
	return s.GetItem(ctx, subscriptionID, id)
}

// Tags returns the whole tag catalog of a subscription.
func (s *Service) Tags(ctx context.Context, subscriptionID int64) model.Response[[]model.Tag] {
	tags, err := s.gw.ListTags(ctx, subscriptionID)
	if err != nil {
		s.logger.Error("list tags", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Tag]()
	}
	return model.OK(nonNil(tags))
}

// TagCollection returns one page of tags with their item counts.
func (s *Service) TagCollection(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Tag] {
	q.Page = q.Page.Normalize()
	tags, total, err := s.gw.ListTagsWithCounts(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error("list tag collection", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Tag]()
	}
	return model.Paged(nonNil(tags), withTotal(q.Page, total))
}

func (s *Service) UpsertTag(ctx context.Context, subscriptionID int64, tag model.Tag) model.Response[*model.Tag] {
	tag.SubscriptionID = subscriptionID
	saved, err := s.gw.UpsertTag(ctx, tag)
	if err != nil {
		s.logger.Error("upsert tag", "tag_id", tag.ID, "error", err)
		return model.Failed[*model.Tag]()
	}
	return model.OK(saved)
}

// Groups returns the whole group catalog of a subscription.
func (s *Service) Groups(ctx context.Context, subscriptionID int64) model.Response[[]model.Group] {
	groups, err := s.gw.ListGroups(ctx, subscriptionID)
	if err != nil {
		s.logger.Error("list groups", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Group]()
	}
	return model.OK(nonNil(groups))
}

// GroupCollection returns one page of groups with their item counts.
func (s *Service) GroupCollection(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Group] {
	q.Page = q.Page.Normalize()
	groups, total, err := s.gw.ListGroupsWithCounts(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error("list group collection", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.Group]()
	}
	return model.Paged(nonNil(groups), withTotal(q.Page, total))
}

func (s *Service) UpsertGroup(ctx context.Context, subscriptionID int64, group model.Group) model.Response[*model.Group] {
	group.SubscriptionID = subscriptionID
	saved, err := s.gw.UpsertGroup(ctx, group)
	if err != nil {
		s.logger.Error("upsert group", "group_id", group.ID, "error", err)
		return model.Failed[*model.Group]()
	}
	return model.OK(saved)
}

// ItemTags returns the active tag associations of one item.
func (s *Service) ItemTags(ctx context.Context, subscriptionID, itemID int64) model.Response[[]model.ItemAttribute] {
	return s.itemLinks(ctx, "list item tags", s.gw.ListItemTags, subscriptionID, itemID)
}

func (s *Service) ItemGroups(ctx context.Context, subscriptionID, itemID int64) model.Response[[]model.ItemAttribute] {
	return s.itemLinks(ctx, "list item groups", s.gw.ListItemGroups, subscriptionID, itemID)
}

// UpsertItemTags links or unlinks item/tag pairs. Pairs outside the
// subscription are ignored.
func (s *Service) UpsertItemTags(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) model.Response[bool] {
	return s.upsertLinks(ctx, "upsert item tags", s.gw.UpsertItemTags, subscriptionID, rows)
}

func (s *Service) UpsertItemGroups(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) model.Response[bool] {
	return s.upsertLinks(ctx, "upsert item groups", s.gw.UpsertItemGroups, subscriptionID, rows)
}

func (s *Service) itemLinks(ctx context.Context, op string, lookup func(context.Context, int64, int64) ([]model.ItemAttribute, error), subscriptionID, itemID int64) model.Response[[]model.ItemAttribute] {
	links, err := lookup(ctx, subscriptionID, itemID)
	if err != nil {
		s.logger.Error(op, "item_id", itemID, "error", err)
		return model.Failed[[]model.ItemAttribute]()
	}
	return model.OK(nonNil(links))
}

func (s *Service) upsertLinks(ctx context.Context, op string, upsert func(context.Context, int64, []model.ItemAttribute) error, subscriptionID int64, rows []model.ItemAttribute) model.Response[bool] {
	if len(rows) == 0 {
		return model.Failed[bool]()
	}
	if err := upsert(ctx, subscriptionID, rows); err != nil {
		s.logger.Error(op, "rows", len(rows), "error", err)
		return model.Failed[bool]()
	}
	return model.OK(true)
}

// ShoppingListCollection returns one page of shopping lists with item counts.
func (s *Service) ShoppingListCollection(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.ShoppingList] {
	q.Page = q.Page.Normalize()
	lists, total, err := s.gw.ListShoppingLists(ctx, subscriptionID, q)
	if err != nil {
		s.logger.Error("list shopping lists", "subscription_id", subscriptionID, "error", err)
		return model.Failed[[]model.ShoppingList]()
	}
	return model.Paged(nonNil(lists), withTotal(q.Page, total))
}

func (s *Service) UpsertShoppingList(ctx context.Context, subscriptionID int64, list model.ShoppingList) model.Response[*model.ShoppingList] {
	list.SubscriptionID = subscriptionID
	saved, err := s.gw.UpsertShoppingList(ctx, list)
	if err != nil {
		s.logger.Error("upsert shopping list", "shopping_list_id", list.ID, "error", err)
		return model.Failed[*model.ShoppingList]()
	}
	return model.OK(saved)
}

// ShoppingListItems returns the items of one list with their tags and groups.
func (s *Service) ShoppingListItems(ctx context.Context, subscriptionID, listID int64, q model.Query) model.Response[[]model.ShoppingListItem] {
	page, err := s.gw.ListShoppingListItems(ctx, subscriptionID, listID, q)
	if err != nil {
		s.logger.Error("list shopping list items", "shopping_list_id", listID, "error", err)
		return model.Failed[[]model.ShoppingListItem]()
	}
	return model.OK(AttachListItemAttributes(page.Items, page.ItemTags, page.ItemGroups, subscriptionID))
}

// UpsertShoppingListItems adds items to or removes them from lists. Each row
// is scoped by its own shopping list id.
func (s *Service) UpsertShoppingListItems(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) model.Response[bool] {
	if len(rows) == 0 {
		return model.Failed[bool]()
	}
	if err := s.gw.UpsertShoppingListItems(ctx, subscriptionID, rows); err != nil {
		s.logger.Error("upsert shopping list items", "rows", len(rows), "error", err)
		return model.Failed[bool]()
	}
	return model.OK(true)
}

func withTotal(p model.Page, total int) model.Page {
	p.Total = total
	return p
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
