package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"gorm.io/gorm"
)

type jobRow struct {
	ID               string    `gorm:"primaryKey;size:64"`
	Title            string    `gorm:"size:120;not null"`
	Company          string    `gorm:"size:255;not null"`
	Location         string    `gorm:"size:255;not null"`
	JobType          string    `gorm:"column:job_type;size:32;index"`
	Description      string    `gorm:"type:text;not null"`
	Requirements     string    `gorm:"type:text"`
	Salary           float64   `gorm:"column:salary"`
	OriginalSalary   float64   `gorm:"column:original_salary"`
	OriginalCurrency string    `gorm:"column:original_currency;size:3"`
	PostedBy         string    `gorm:"column:posted_by;size:128;index"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (jobRow) TableName() string {
	return "jobs"
}

type conversationRow struct {
	ID                  string     `gorm:"primaryKey;size:64"`
	JobID               string     `gorm:"column:job_id;size:128;index"`
	JobTitle            string     `gorm:"column:job_title;size:255"`
	LastMessageText     *string    `gorm:"column:last_message_text;type:text"`
	LastMessageSenderID *string    `gorm:"column:last_message_sender_id;size:128"`
	LastMessageAt       *time.Time `gorm:"column:last_message_at;index"`
	CreatedAt           time.Time
}

func (conversationRow) TableName() string {
	return "conversations"
}

type participantRow struct {
	ConversationID string `gorm:"column:conversation_id;primaryKey;size:64"`
	UID            string `gorm:"column:uid;primaryKey;size:128;index"`
	Position       int    `gorm:"column:position;not null"`
	UnreadCount    int    `gorm:"column:unread_count;not null;default:0"`
}

func (participantRow) TableName() string {
	return "conversation_participants"
}

type messageRow struct {
	ID             string    `gorm:"primaryKey;size:64"`
	ConversationID string    `gorm:"column:conversation_id;size:64;index:idx_messages_conv_read"`
	SenderID       string    `gorm:"column:sender_id;size:128"`
	Text           string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"column:sent_at;index"`
	Read           bool      `gorm:"column:is_read;not null;default:false;index:idx_messages_conv_read"`
}

func (messageRow) TableName() string {
	return "messages"
}

// AutoMigrate creates the tables used by the mysql backend.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&jobRow{}, &conversationRow{}, &participantRow{}, &messageRow{})
}

func toJobRow(j *model.Job) jobRow {
	return jobRow{
		ID:               j.ID,
		Title:            j.Title,
		Company:          j.Company,
		Location:         j.Location,
		JobType:          j.JobType,
		Description:      j.Description,
		Requirements:     j.Requirements,
		Salary:           j.Salary,
		OriginalSalary:   j.OriginalSalary,
		OriginalCurrency: j.OriginalCurrency,
		PostedBy:         j.PostedBy,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func (r jobRow) toModel() model.Job {
	return model.Job{
		ID:               r.ID,
		Title:            r.Title,
		Company:          r.Company,
		Location:         r.Location,
		JobType:          r.JobType,
		Description:      r.Description,
		Requirements:     r.Requirements,
		Salary:           r.Salary,
		OriginalSalary:   r.OriginalSalary,
		OriginalCurrency: r.OriginalCurrency,
		PostedBy:         r.PostedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type mysqlJobRepository struct {
	db *gorm.DB
}

func NewMySQLJobRepository(db *gorm.DB) JobRepository {
	return &mysqlJobRepository{db: db}
}

func (r *mysqlJobRepository) Create(ctx context.Context, job *model.Job) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	job.ID = uuid.NewString()
	row := toJobRow(job)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *mysqlJobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var row jobRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	job := row.toModel()
	return &job, nil
}

func (r *mysqlJobRepository) Update(ctx context.Context, job *model.Job) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	row := toJobRow(job)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&jobRow{}).Where("id = ?", job.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return tx.Save(&row).Error
	})
}

func (r *mysqlJobRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Delete(&jobRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mysqlJobRepository) List(ctx context.Context) ([]model.Job, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []jobRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toModel())
	}
	return list, nil
}

type mysqlConversationRepository struct {
	db   *gorm.DB
	poll time.Duration
}

func NewMySQLConversationRepository(db *gorm.DB, poll time.Duration) ConversationRepository {
	return &mysqlConversationRepository{db: db, poll: poll}
}

func (r *mysqlConversationRepository) Create(ctx context.Context, cv *model.Conversation) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	id := uuid.NewString()
	row := conversationRow{
		ID:        id,
		JobID:     cv.JobID,
		JobTitle:  cv.JobTitle,
		CreatedAt: cv.CreatedAt,
	}
	if lm := cv.LastMessage; lm != nil {
		text, sender, at := lm.Text, lm.SenderID, lm.Timestamp
		row.LastMessageText, row.LastMessageSenderID, row.LastMessageAt = &text, &sender, &at
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for i, uid := range cv.Participants {
			p := participantRow{ConversationID: id, UID: uid, Position: i, UnreadCount: cv.UnreadCount[uid]}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cv.ID = id
	return nil
}

func (r *mysqlConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	list, err := r.load(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (r *mysqlConversationRepository) Update(ctx context.Context, id string, u model.ConversationUpdate) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row conversationRow
		if err := tx.Select("id").First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if lm := u.LastMessage; lm != nil {
			if err := tx.Model(&conversationRow{}).Where("id = ?", id).Updates(map[string]interface{}{
				"last_message_text":      lm.Text,
				"last_message_sender_id": lm.SenderID,
				"last_message_at":        lm.Timestamp,
			}).Error; err != nil {
				return err
			}
		}
		for uid, n := range u.UnreadCount {
			if err := tx.Model(&participantRow{}).
				Where("conversation_id = ? AND uid = ?", id, uid).
				Update("unread_count", n).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *mysqlConversationRepository) ListByParticipant(ctx context.Context, uid string) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&participantRow{}).
		Where("uid = ?", uid).
		Order("conversation_id").
		Pluck("conversation_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.load(ctx, ids)
}

func (r *mysqlConversationRepository) WatchByParticipant(ctx context.Context, uid string) (<-chan []model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return watchSnapshots(ctx, "conversations:"+uid, tickerSignal(ctx, r.poll), func(ctx context.Context) ([]model.Conversation, error) {
		return r.ListByParticipant(ctx, uid)
	}), nil
}

func (r *mysqlConversationRepository) load(ctx context.Context, ids []string) ([]model.Conversation, error) {
	var rows []conversationRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var parts []participantRow
	if err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Order("conversation_id").
		Order("position").
		Find(&parts).Error; err != nil {
		return nil, err
	}
	byConv := make(map[string][]participantRow, len(rows))
	for _, p := range parts {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p)
	}
	list := make([]model.Conversation, 0, len(rows))
	for _, row := range rows {
		cv := model.Conversation{
			ID:          row.ID,
			JobID:       row.JobID,
			JobTitle:    row.JobTitle,
			UnreadCount: map[string]int{},
			CreatedAt:   row.CreatedAt,
		}
		if row.LastMessageAt != nil {
			cv.LastMessage = &model.LastMessage{Timestamp: *row.LastMessageAt}
			if row.LastMessageText != nil {
				cv.LastMessage.Text = *row.LastMessageText
			}
			if row.LastMessageSenderID != nil {
				cv.LastMessage.SenderID = *row.LastMessageSenderID
			}
		}
		for _, p := range byConv[row.ID] {
			cv.Participants = append(cv.Participants, p.UID)
			cv.UnreadCount[p.UID] = p.UnreadCount
		}
		list = append(list, cv)
	}
	return list, nil
}

type mysqlMessageRepository struct {
	db   *gorm.DB
	poll time.Duration
}

func NewMySQLMessageRepository(db *gorm.DB, poll time.Duration) MessageRepository {
	return &mysqlMessageRepository{db: db, poll: poll}
}

func (r messageRow) toModel() model.Message {
	return model.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Text:           r.Text,
		Timestamp:      r.Timestamp,
		Read:           r.Read,
	}
}

func (r *mysqlMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	row := messageRow{
		ID:             uuid.NewString(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		Timestamp:      msg.Timestamp,
		Read:           msg.Read,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	msg.ID = row.ID
	return nil
}

func (r *mysqlMessageRepository) find(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []messageRow
	if err := r.db.WithContext(ctx).Where(query, args...).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toModel())
	}
	return list, nil
}

func (r *mysqlMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	return r.find(ctx, "conversation_id = ?", conversationID)
}

func (r *mysqlMessageRepository) ListUnread(ctx context.Context, conversationID, readerUID string) ([]model.Message, error) {
	return r.find(ctx, "conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerUID, false)
}

func (r *mysqlMessageRepository) MarkRead(ctx context.Context, ids []string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&messageRow{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
			return err
		}
		if int(n) != len(ids) {
			return ErrNotFound
		}
		return tx.Model(&messageRow{}).
			Where("id IN ?", ids).
			Update("is_read", true).Error
	})
}

func (r *mysqlMessageRepository) WatchByConversation(ctx context.Context, conversationID string) (<-chan []model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return watchSnapshots(ctx, "messages:"+conversationID, tickerSignal(ctx, r.poll), func(ctx context.Context) ([]model.Message, error) {
		return r.ListByConversation(ctx, conversationID)
	}), nil
}
