package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "petstay/internal/domain/booking"
	domainclients "petstay/internal/domain/clients"
	domainpayments "petstay/internal/domain/payments"
	domainrooms "petstay/internal/domain/rooms"
	domainsettings "petstay/internal/domain/settings"
)

// RoomRepository keeps room types and rooms in memory.
type RoomRepository struct {
	mu    sync.RWMutex
	types map[domainrooms.RoomTypeID]*domainrooms.RoomType
	rooms map[domainrooms.RoomID]*domainrooms.Room
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		types: make(map[domainrooms.RoomTypeID]*domainrooms.RoomType),
		rooms: make(map[domainrooms.RoomID]*domainrooms.Room),
	}
}

func (r *RoomRepository) RoomType(ctx context.Context, id domainrooms.RoomTypeID) (*domainrooms.RoomType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[id]
	if !ok {
		return nil, domainrooms.ErrRoomTypeNotFound
	}
	return rt, nil
}

func (r *RoomRepository) Room(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domainrooms.ErrRoomNotFound
	}
	return room, nil
}

func (r *RoomRepository) ActiveRooms(ctx context.Context, id domainrooms.RoomTypeID) ([]*domainrooms.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrooms.Room
	for _, room := range r.rooms {
		if room.RoomTypeID == id && room.Active {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RoomRepository) ActiveRoomCount(ctx context.Context, id domainrooms.RoomTypeID) (int, error) {
	active, err := r.ActiveRooms(ctx, id)
	return len(active), err
}

func (r *RoomRepository) SaveRoomType(ctx context.Context, rt *domainrooms.RoomType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[rt.ID] = rt
	return nil
}

func (r *RoomRepository) SaveRoom(ctx context.Context, room *domainrooms.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

// ClientRepository keeps clients and their pets in memory.
type ClientRepository struct {
	mu      sync.RWMutex
	clients map[domainclients.ClientID]*domainclients.Client
	pets    map[domainclients.ClientID][]*domainclients.Pet
}

func NewClientRepository() *ClientRepository {
	return &ClientRepository{
		clients: make(map[domainclients.ClientID]*domainclients.Client),
		pets:    make(map[domainclients.ClientID][]*domainclients.Pet),
	}
}

func (r *ClientRepository) ByID(ctx context.Context, id domainclients.ClientID) (*domainclients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, domainclients.ErrClientNotFound
	}
	return c, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *domainclients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	return nil
}

func (r *ClientRepository) Pets(ctx context.Context, id domainclients.ClientID) ([]*domainclients.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domainclients.Pet(nil), r.pets[id]...), nil
}

func (r *ClientRepository) SavePet(ctx context.Context, pet *domainclients.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.pets[pet.OwnerID]
	for i, p := range existing {
		if p.ID == pet.ID {
			existing[i] = pet
			return nil
		}
	}
	r.pets[pet.OwnerID] = append(existing, pet)
	return nil
}

// BookingRepository keeps bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepository) Children(ctx context.Context, parent domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.ParentID == parent {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentOrder < out[j].SegmentOrder })
	return out, nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, client domainclients.ClientID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.ClientID == client {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *BookingRepository) OverlapCandidatesByRoomType(ctx context.Context, id domainrooms.RoomTypeID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.RoomTypeID != id || !occupiesCapacity(b) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *BookingRepository) OverlapCandidatesByRoom(ctx context.Context, id domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.RoomID != id || !occupiesCapacity(b) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *BookingRepository) HasActiveBookings(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// occupiesCapacity mirrors the repository contract: cancelled bookings and
// composite parents never block a room.
func occupiesCapacity(b *domainbooking.Booking) bool {
	return b.Status != domainbooking.StatusCancelled && b.Kind != domainbooking.KindCompositeParent
}

// PaymentRepository keeps payments in memory.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[domainpayments.PaymentID]*domainpayments.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[domainpayments.PaymentID]*domainpayments.Payment)}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayments.PaymentID) (*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainpayments.ErrPaymentNotFound
	}
	return p, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainpayments.Payment
	for _, p := range r.items {
		if p.BookingID == id {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepository) DeleteByBooking(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, p := range r.items {
		if p.BookingID == id {
			delete(r.items, pid)
		}
	}
	return nil
}

// SettingsRepository keeps the singleton settings record in memory.
type SettingsRepository struct {
	mu     sync.RWMutex
	stored *domainsettings.Settings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Get(ctx context.Context) (*domainsettings.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stored == nil {
		return nil, domainsettings.ErrNotFound
	}
	return r.stored, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *domainsettings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = domainsettings.SingletonID
	s.Version++
	r.stored = s
	return nil
}
