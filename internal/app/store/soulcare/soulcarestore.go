// internal/app/store/soulcare/soulcarestore.go
package soulcarestore

import (
	"context"
	"time"

	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the soul-care catalog collections:
// soulcare_services, soulcare_team, and soulcare_resources.
type Store struct {
	services  *mongo.Collection
	team      *mongo.Collection
	resources *mongo.Collection
}

// New creates a new soul-care store.
func New(db *mongo.Database) *Store {
	return &Store{
		services:  db.Collection("soulcare_services"),
		team:      db.Collection("soulcare_team"),
		resources: db.Collection("soulcare_resources"),
	}
}

// ListFilter narrows catalog listings. Zero value lists everything.
type ListFilter struct {
	Status   string // "" for any
	Featured *bool  // nil for any
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	return q
}

// catalogSort orders catalog entries by display order, then creation date.
var catalogSort = bson.D{
	{Key: "order", Value: 1},
	{Key: "created_at", Value: 1},
}

/*─────────────────────────────────────────────────────────────────────────────*
| Services                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ServiceInput contains the fields for creating or updating a service.
type ServiceInput struct {
	Name        string
	Description string
	ImagePath   string
	Status      string
	Featured    bool
	Order       int
}

// CreateService creates a new soul-care service.
func (s *Store) CreateService(ctx context.Context, input ServiceInput) (*models.SoulCareService, error) {
	now := time.Now()
	service := models.SoulCareService{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		ImagePath:   input.ImagePath,
		Status:      input.Status,
		Featured:    input.Featured,
		Order:       input.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.services.InsertOne(ctx, service); err != nil {
		return nil, err
	}
	return &service, nil
}

// GetService retrieves a service by ID.
func (s *Store) GetService(ctx context.Context, id primitive.ObjectID) (*models.SoulCareService, error) {
	var service models.SoulCareService
	if err := s.services.FindOne(ctx, bson.M{"_id": id}).Decode(&service); err != nil {
		return nil, err
	}
	return &service, nil
}

// UpdateService replaces a service's editable fields.
func (s *Store) UpdateService(ctx context.Context, id primitive.ObjectID, input ServiceInput) error {
	_, err := s.services.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":        input.Name,
		"description": input.Description,
		"image_path":  input.ImagePath,
		"status":      input.Status,
		"featured":    input.Featured,
		"order":       input.Order,
		"updated_at":  time.Now(),
	}})
	return err
}

// DeleteService deletes a service by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) DeleteService(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.services.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListServices returns services matching the filter in display order.
func (s *Store) ListServices(ctx context.Context, filter ListFilter) ([]models.SoulCareService, error) {
	cursor, err := s.services.Find(ctx, filter.query(), options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []models.SoulCareService
	if err := cursor.All(ctx, &services); err != nil {
		return nil, err
	}
	return services, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Team members                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// TeamMemberInput contains the fields for creating or updating a team member.
type TeamMemberInput struct {
	Name      string
	Title     string
	Bio       string
	PhotoPath string
	Email     string
	Status    string
	Featured  bool
	Order     int
}

// CreateTeamMember creates a new team member.
func (s *Store) CreateTeamMember(ctx context.Context, input TeamMemberInput) (*models.SoulCareTeamMember, error) {
	now := time.Now()
	member := models.SoulCareTeamMember{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Title:     input.Title,
		Bio:       input.Bio,
		PhotoPath: input.PhotoPath,
		Email:     input.Email,
		Status:    input.Status,
		Featured:  input.Featured,
		Order:     input.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.team.InsertOne(ctx, member); err != nil {
		return nil, err
	}
	return &member, nil
}

// GetTeamMember retrieves a team member by ID.
func (s *Store) GetTeamMember(ctx context.Context, id primitive.ObjectID) (*models.SoulCareTeamMember, error) {
	var member models.SoulCareTeamMember
	if err := s.team.FindOne(ctx, bson.M{"_id": id}).Decode(&member); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateTeamMember replaces a team member's editable fields.
func (s *Store) UpdateTeamMember(ctx context.Context, id primitive.ObjectID, input TeamMemberInput) error {
	_, err := s.team.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       input.Name,
		"title":      input.Title,
		"bio":        input.Bio,
		"photo_path": input.PhotoPath,
		"email":      input.Email,
		"status":     input.Status,
		"featured":   input.Featured,
		"order":      input.Order,
		"updated_at": time.Now(),
	}})
	return err
}

// DeleteTeamMember deletes a team member by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) DeleteTeamMember(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.team.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListTeamMembers returns team members matching the filter in display order.
func (s *Store) ListTeamMembers(ctx context.Context, filter ListFilter) ([]models.SoulCareTeamMember, error) {
	cursor, err := s.team.Find(ctx, filter.query(), options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.SoulCareTeamMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Resources                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ResourceInput contains the fields for creating or updating a resource.
type ResourceInput struct {
	Title       string
	Description string
	URL         string
	FilePath    string
	Status      string
	Featured    bool
	Order       int
}

// CreateResource creates a new resource.
func (s *Store) CreateResource(ctx context.Context, input ResourceInput) (*models.SoulCareResource, error) {
	now := time.Now()
	resource := models.SoulCareResource{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		URL:         input.URL,
		FilePath:    input.FilePath,
		Status:      input.Status,
		Featured:    input.Featured,
		Order:       input.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.resources.InsertOne(ctx, resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// GetResource retrieves a resource by ID.
func (s *Store) GetResource(ctx context.Context, id primitive.ObjectID) (*models.SoulCareResource, error) {
	var resource models.SoulCareResource
	if err := s.resources.FindOne(ctx, bson.M{"_id": id}).Decode(&resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// UpdateResource replaces a resource's editable fields.
func (s *Store) UpdateResource(ctx context.Context, id primitive.ObjectID, input ResourceInput) error {
	_, err := s.resources.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":       input.Title,
		"description": input.Description,
		"url":         input.URL,
		"file_path":   input.FilePath,
		"status":      input.Status,
		"featured":    input.Featured,
		"order":       input.Order,
		"updated_at":  time.Now(),
	}})
	return err
}

// DeleteResource deletes a resource by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) DeleteResource(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.resources.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListResources returns resources matching the filter in display order.
func (s *Store) ListResources(ctx context.Context, filter ListFilter) ([]models.SoulCareResource, error) {
	cursor, err := s.resources.Find(ctx, filter.query(), options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var resources []models.SoulCareResource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}
