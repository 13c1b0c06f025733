package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue Redis队列实现
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// TenantEventMessage 租户生命周期事件消息
type TenantEventMessage struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"` // provisioned / updated / rolled_back
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"` // 租户名称
	SchemaName string `json:"schema_name"` // 租户Schema
	Created    int64  `json:"created"`
}

// 事件类型常量
const (
	EventTenantProvisioned = "provisioned"
	EventTenantUpdated     = "updated"
	EventTenantRolledBack  = "rolled_back"
)

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisQueue 创建Redis队列实例
func NewRedisQueue(config *Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "homefinder:events"
	}

	return &RedisQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *RedisQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// PublishTenantEvent 推送租户生命周期事件
func (q *RedisQueue) PublishTenantEvent(eventID, eventType, tenantID, tenantName, schemaName string) error {
	ctx := context.Background()

	message := TenantEventMessage{
		EventID:    eventID,
		EventType:  eventType,
		TenantID:   tenantID,
		TenantName: tenantName,
		SchemaName: schemaName,
		Created:    time.Now().Unix(),
	}

	// 序列化消息
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化事件消息失败: %v", err)
	}

	key := fmt.Sprintf("%s:tenant", q.prefix)
	return q.client.LPush(ctx, key, data).Err()
}
