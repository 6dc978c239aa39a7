package postgres

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &UserRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 创建用户，邮箱冲突返回冲突错误
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(user).Error; err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(err, apperrors.CodeConflict, "邮箱已被注册")
		}
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "创建用户失败")
	}
	return nil
}

// GetByID 按 ID 查询用户，未找到返回 nil
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	var user entity.User
	err := getDB(ctx, r.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询用户失败")
	}
	return &user, nil
}

// GetByEmail 按邮箱查询用户，未找到返回 nil
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.GetByEmail")
	defer span.End()

	var user entity.User
	err := getDB(ctx, r.db).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询用户失败")
	}
	return &user, nil
}

// Update 更新用户
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.db).Save(user).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "更新用户失败")
	}
	return nil
}

// Delete 删除用户，遥测与台账的外键由数据库置空
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.Delete")
	defer span.End()

	result := getDB(ctx, r.db).Where("id = ?", id).Delete(&entity.User{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return apperrors.Wrap(result.Error, apperrors.CodeStoreUnavailable, "删除用户失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeUserNotFound, "user not found")
	}
	return nil
}

// List 分页查询用户
func (r *UserRepository) List(ctx context.Context, page *repository.Pagination) (*repository.PagedResult[*entity.User], error) {
	ctx, span := r.tracer.Start(ctx, "postgres.UserRepository.List")
	defer span.End()

	page.Normalize()
	db := getDB(ctx, r.db).Model(&entity.User{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计用户失败")
	}

	var items []*entity.User
	err := db.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询用户失败")
	}

	return &repository.PagedResult[*entity.User]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}
