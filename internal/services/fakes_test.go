package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// store is an in-memory database shared by the fake repositories. The fake
// unit of work snapshots it before each transaction and restores it when the
// transaction function fails.
type store struct {
	products   map[int64]models.Product
	tables     map[int64]models.Table
	orders     map[int64]models.Order
	lines      map[int64][]models.OrderLine
	movements  []models.InventoryMovement
	sequences  map[string]int
	users      map[int64]models.User
	categories map[int64]models.Category
	receipts   map[int64]models.Receipt
	settings   map[string]models.ApplicationSetting
	nextID     int64

	// failOn makes the named fake method return the error once.
	failOn map[string]error
	// inTx is set while a fake unit of work runs its function.
	inTx bool
}

// errPoolReadInTx stands for a read that would need a second pooled
// connection while the transaction holds one.
var errPoolReadInTx = errors.New("pool read inside a transaction")

func newStore() *store {
	return &store{
		products:   map[int64]models.Product{},
		tables:     map[int64]models.Table{},
		orders:     map[int64]models.Order{},
		lines:      map[int64][]models.OrderLine{},
		sequences:  map[string]int{},
		users:      map[int64]models.User{},
		categories: map[int64]models.Category{},
		receipts:   map[int64]models.Receipt{},
		settings:   map[string]models.ApplicationSetting{},
		nextID:     1000,
		failOn:     map[string]error{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) fail(method string) error {
	if err, ok := s.failOn[method]; ok {
		delete(s.failOn, method)
		return err
	}
	return nil
}

func (s *store) snapshot() *store {
	c := *s
	c.products = map[int64]models.Product{}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.tables = map[int64]models.Table{}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	c.orders = map[int64]models.Order{}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.lines = map[int64][]models.OrderLine{}
	for k, v := range s.lines {
		c.lines[k] = append([]models.OrderLine(nil), v...)
	}
	c.movements = append([]models.InventoryMovement(nil), s.movements...)
	c.sequences = map[string]int{}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	c.users = map[int64]models.User{}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.categories = map[int64]models.Category{}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	c.receipts = map[int64]models.Receipt{}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	c.settings = map[string]models.ApplicationSetting{}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return &c
}

func (s *store) restore(from *store) {
	failOn := s.failOn
	*s = *from
	s.failOn = failOn
}

type fakeUnitOfWork struct {
	s *store
}

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	before := u.s.snapshot()
	u.s.inTx = true
	defer func() { u.s.inTx = false }()
	if err := fn(nil); err != nil {
		u.s.restore(before)
		return err
	}
	return nil
}

// Products

type fakeProductRepo struct{ s *store }

func (r *fakeProductRepo) CreateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	if err := r.s.fail("CreateProduct"); err != nil {
		return err
	}
	p.ID = r.s.id()
	r.s.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if c, ok := r.s.categories[p.CategoryID]; ok {
		name := c.Name
		p.CategoryName = &name
	}
	return &p, nil
}

func (r *fakeProductRepo) GetProducts(_ context.Context, f models.ProductFilters) ([]models.Product, int, error) {
	var out []models.Product
	for _, p := range r.s.products {
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.IsAvailable != nil && p.IsAvailable != *f.IsAvailable {
			continue
		}
		if f.Search != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*f.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Stock = cur.Stock
	r.s.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *fakeProductRepo) ToggleAvailability(_ context.Context, _ repositories.SQLExecutor, id int64) (bool, error) {
	p, ok := r.s.products[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	p.IsAvailable = !p.IsAvailable
	r.s.products[id] = p
	return p.IsAvailable, nil
}

func (r *fakeProductRepo) SetImage(_ context.Context, _ repositories.SQLExecutor, id int64, image string) error {
	p, ok := r.s.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Image = &image
	r.s.products[id] = p
	return nil
}

func (r *fakeProductRepo) LockProducts(_ context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]models.Product, error) {
	out := map[int64]models.Product{}
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, _ repositories.SQLExecutor, id int64, qty int) (int, error) {
	if err := r.s.fail("DecrementStock"); err != nil {
		return 0, err
	}
	p, ok := r.s.products[id]
	if !ok || p.Stock < qty {
		return 0, repositories.ErrConditionFailed
	}
	p.Stock -= qty
	r.s.products[id] = p
	return p.Stock, nil
}

func (r *fakeProductRepo) IncrementStock(_ context.Context, _ repositories.SQLExecutor, id int64, qty int) (int, error) {
	p, ok := r.s.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	p.Stock += qty
	r.s.products[id] = p
	return p.Stock, nil
}

func (r *fakeProductRepo) SetStock(_ context.Context, _ repositories.SQLExecutor, id int64, stock int) error {
	p, ok := r.s.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Stock = stock
	r.s.products[id] = p
	return nil
}

// Movements

type fakeMovementRepo struct{ s *store }

func (r *fakeMovementRepo) CreateMovement(_ context.Context, _ repositories.SQLExecutor, m *models.InventoryMovement) error {
	m.ID = r.s.id()
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *fakeMovementRepo) GetMovements(_ context.Context, f models.MovementFilters) ([]models.InventoryMovement, int, error) {
	var out []models.InventoryMovement
	for _, m := range r.s.movements {
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.MovementType != nil && m.MovementType != *f.MovementType {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

// Tables

type fakeTableRepo struct{ s *store }

func (r *fakeTableRepo) CreateTable(_ context.Context, _ repositories.SQLExecutor, t *models.Table) error {
	for _, existing := range r.s.tables {
		if existing.TableNumber == t.TableNumber {
			return repositories.ErrDuplicateKey
		}
	}
	t.ID = r.s.id()
	r.s.tables[t.ID] = *t
	return nil
}

func (r *fakeTableRepo) GetTableByID(_ context.Context, id int64) (*models.Table, error) {
	t, ok := r.s.tables[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTableRepo) GetTables(_ context.Context, status *string) ([]models.Table, error) {
	var out []models.Table
	for _, t := range r.s.tables {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (r *fakeTableRepo) UpdateTable(_ context.Context, _ repositories.SQLExecutor, t *models.Table) error {
	if _, ok := r.s.tables[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.tables[t.ID] = *t
	return nil
}

func (r *fakeTableRepo) DeleteTable(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.tables[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.tables, id)
	return nil
}

func (r *fakeTableRepo) GetTableForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Table, error) {
	return r.GetTableByID(ctx, id)
}

func (r *fakeTableRepo) UpdateTableStatus(_ context.Context, _ repositories.SQLExecutor, id int64, status string) error {
	t, ok := r.s.tables[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = status
	r.s.tables[id] = t
	return nil
}

// Orders

type fakeOrderRepo struct{ s *store }

func (r *fakeOrderRepo) CreateOrder(_ context.Context, _ repositories.SQLExecutor, o *models.Order) error {
	if err := r.s.fail("CreateOrder"); err != nil {
		return err
	}
	for _, existing := range r.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repositories.ErrDuplicateKey
		}
	}
	o.ID = r.s.id()
	o.CreatedAt = time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	r.s.orders[o.ID] = *o
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	if r.s.inTx {
		return nil, errPoolReadInTx
	}
	return r.LoadOrder(ctx, nil, id)
}

func (r *fakeOrderRepo) LoadOrder(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	o.Lines = append([]models.OrderLine(nil), r.s.lines[id]...)
	if u, ok := r.s.users[o.UserID]; ok {
		name := u.Name
		o.UserName = &name
	}
	if o.TableID != nil {
		if t, ok := r.s.tables[*o.TableID]; ok {
			number := t.TableNumber
			o.TableNumber = &number
		}
	}
	return &o, nil
}

func (r *fakeOrderRepo) GetOrders(ctx context.Context, f models.OrderFilters) ([]models.Order, int, error) {
	var out []models.Order
	for id, o := range r.s.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		full, _ := r.GetOrderByID(ctx, id)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, _ repositories.SQLExecutor, id int64, status, paymentStatus string, completedAt *time.Time) error {
	if err := r.s.fail("UpdateOrderStatus"); err != nil {
		return err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	o.CompletedAt = completedAt
	r.s.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, _ repositories.SQLExecutor, id int64, paymentStatus string) error {
	o, ok := r.s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.PaymentStatus = paymentStatus
	r.s.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) DeleteOrder(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.orders[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.orders, id)
	return nil
}

func (r *fakeOrderRepo) CountOpenOrdersForTable(_ context.Context, _ repositories.SQLExecutor, tableID int64) (int, error) {
	n := 0
	for _, o := range r.s.orders {
		if o.TableID != nil && *o.TableID == tableID && !models.IsTerminalOrderStatus(o.Status) {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) CreateOrderLine(_ context.Context, _ repositories.SQLExecutor, l *models.OrderLine) error {
	if err := r.s.fail("CreateOrderLine"); err != nil {
		return err
	}
	l.ID = r.s.id()
	r.s.lines[l.OrderID] = append(r.s.lines[l.OrderID], *l)
	return nil
}

func (r *fakeOrderRepo) GetOrderLines(_ context.Context, _ repositories.SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	return append([]models.OrderLine(nil), r.s.lines[orderID]...), nil
}

func (r *fakeOrderRepo) DeleteOrderLines(_ context.Context, _ repositories.SQLExecutor, orderID int64) error {
	delete(r.s.lines, orderID)
	return nil
}

// Sequences

type fakeSequenceRepo struct{ s *store }

func (r *fakeSequenceRepo) Next(_ context.Context, _ repositories.SQLExecutor, scope string, day time.Time) (int, error) {
	key := scope + day.Format("20060102")
	r.s.sequences[key]++
	return r.s.sequences[key], nil
}

// recordingPublisher keeps every published subject.
type recordingPublisher struct {
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// Users

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, u *models.User) error {
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrDuplicateKey
		}
	}
	u.ID = r.s.id()
	r.s.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetUsers(_ context.Context, f models.UserFilters) ([]models.User, int, error) {
	var out []models.User
	for _, u := range r.s.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, _ repositories.SQLExecutor, u *models.User) error {
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	for id, existing := range r.s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrDuplicateKey
		}
	}
	cur.Name, cur.Email, cur.Role, cur.IsActive = u.Name, u.Email, u.Role, u.IsActive
	r.s.users[u.ID] = cur
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ repositories.SQLExecutor, id int64, hash string) error {
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsActive = active
	if !active {
		u.TokenVersion++
	}
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) BumpTokenVersion(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	u, ok := r.s.users[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	u.TokenVersion++
	r.s.users[id] = u
	return u.TokenVersion, nil
}

func (r *fakeUserRepo) TouchLastActivity(_ context.Context, id int64, at time.Time) error {
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastActivity = &at
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, o := range r.s.orders {
		if o.UserID == id {
			return repositories.ErrReferenced
		}
	}
	delete(r.s.users, id)
	return nil
}

// Categories

type fakeCategoryRepo struct{ s *store }

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) error {
	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			return repositories.ErrDuplicateKey
		}
	}
	c.ID = r.s.id()
	r.s.categories[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepo) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCategoryRepo) GetCategories(_ context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	for _, c := range r.s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) error {
	if _, ok := r.s.categories[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.categories, id)
	return nil
}

func (r *fakeCategoryRepo) CountProducts(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	n := 0
	for _, p := range r.s.products {
		if p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

// Receipts

type fakeReceiptRepo struct{ s *store }

func (r *fakeReceiptRepo) CreateReceipt(_ context.Context, _ repositories.SQLExecutor, rc *models.Receipt) error {
	for _, existing := range r.s.receipts {
		if existing.OrderID == rc.OrderID || existing.ReceiptNumber == rc.ReceiptNumber {
			return repositories.ErrDuplicateKey
		}
	}
	rc.ID = r.s.id()
	r.s.receipts[rc.ID] = *rc
	return nil
}

func (r *fakeReceiptRepo) GetReceiptByID(_ context.Context, id int64) (*models.Receipt, error) {
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rc, nil
}

func (r *fakeReceiptRepo) ExistsForOrder(_ context.Context, _ repositories.SQLExecutor, orderID int64) (bool, error) {
	for _, rc := range r.s.receipts {
		if rc.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReceiptRepo) GetReceipts(_ context.Context, _ models.ReceiptFilters) ([]models.Receipt, int, error) {
	var out []models.Receipt
	for _, rc := range r.s.receipts {
		out = append(out, rc)
	}
	return out, len(out), nil
}

func (r *fakeReceiptRepo) UpdateFilePath(_ context.Context, _ repositories.SQLExecutor, id int64, path string) error {
	rc, ok := r.s.receipts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	rc.FilePath = &path
	r.s.receipts[id] = rc
	return nil
}

func (r *fakeReceiptRepo) DeleteReceipt(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.s.receipts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.receipts, id)
	return nil
}

// Settings

type fakeSettingRepo struct{ s *store }

func (r *fakeSettingRepo) GetSettings(_ context.Context) ([]models.ApplicationSetting, error) {
	var out []models.ApplicationSetting
	for _, st := range r.s.settings {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettingKey < out[j].SettingKey })
	return out, nil
}

func (r *fakeSettingRepo) GetSetting(_ context.Context, key string) (*models.ApplicationSetting, error) {
	st, ok := r.s.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &st, nil
}

func (r *fakeSettingRepo) UpsertSetting(_ context.Context, _ repositories.SQLExecutor, st *models.ApplicationSetting) error {
	if cur, ok := r.s.settings[st.SettingKey]; ok && st.Description == nil {
		st.Description = cur.Description
	}
	r.s.settings[st.SettingKey] = *st
	return nil
}

func (r *fakeSettingRepo) DeleteSetting(_ context.Context, _ repositories.SQLExecutor, key string) error {
	if _, ok := r.s.settings[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.settings, key)
	return nil
}
