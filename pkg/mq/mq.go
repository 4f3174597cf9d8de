package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"im-delivery/config"
	"im-delivery/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Client RabbitMQ客户端
// 一个交换机绑定两个持久化队列：消息队列和登录队列
// 消息以持久化模式投递，broker重启不丢失未消费条目
// 连接断开后自动重连，不需要人工重启进程

type Client struct {
	cfg config.RabbitMQConfig

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewClient 建立连接并声明交换机与队列
// broker不可达属于致命启动错误，调用方应直接退出进程
func NewClient(cfg config.RabbitMQConfig) (*Client, error) {
	c := &Client{cfg: cfg}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect 建立连接、打开信道并声明拓扑
func (c *Client) connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq连接失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("打开信道失败: %w", err)
	}

	if err := declareTopology(ch, c.cfg); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	c.conn = conn
	c.ch = ch
	return nil
}

// declareTopology 声明持久化交换机、两个持久化队列及绑定
func declareTopology(ch *amqp.Channel, cfg config.RabbitMQConfig) error {
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // 交换机名称
		"direct",     // 类型
		true,         // durable
		false,        // auto-delete
		false,        // internal
		false,        // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("声明交换机失败: %w", err)
	}

	for _, queue := range []string{cfg.MessageQueue, cfg.LoginQueue} {
		if _, err := ch.QueueDeclare(
			queue, // 队列名称
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("声明队列 %s 失败: %w", queue, err)
		}
		// 路由键与队列同名
		if err := ch.QueueBind(queue, queue, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("绑定队列 %s 失败: %w", queue, err)
		}
	}
	return nil
}

// reconnect 重建连接（发布路径发现连接失效时调用）
func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return c.connect()
}

// publish 以持久化模式发布一条消息
// 入列方发完即返回，不等待投递完成
func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // 持久化模式，broker崩溃不丢消息
		Body:         body,
	}

	err := c.ch.PublishWithContext(ctx, c.cfg.Exchange, routingKey, false, false, pub)
	if err == nil {
		return nil
	}

	// 连接可能已断开，重连后重试一次
	logger.Warn("发布失败，尝试重连", zap.String("queue", routingKey), zap.Error(err))
	if rerr := c.reconnect(); rerr != nil {
		return fmt.Errorf("发布失败且重连失败: %w", rerr)
	}
	if err := c.ch.PublishWithContext(ctx, c.cfg.Exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

// PublishMessage 发布一条出站消息到消息队列
func (c *Client) PublishMessage(ctx context.Context, task *MessageTask) error {
	body, err := EncodeMessageTask(task)
	if err != nil {
		return err
	}
	return c.publish(ctx, c.cfg.MessageQueue, body)
}

// PublishLogin 发布一条在线事件到登录队列
func (c *Client) PublishLogin(ctx context.Context, task *LoginTask) error {
	body, err := EncodeLoginTask(task)
	if err != nil {
		return err
	}
	return c.publish(ctx, c.cfg.LoginQueue, body)
}

// ConsumeMessages 消费消息队列，阻塞直到ctx取消
// handler返回nil才ack；返回错误则nack重回队列（至少一次）
func (c *Client) ConsumeMessages(ctx context.Context, handler func(context.Context, *MessageTask) error) error {
	return c.consume(ctx, c.cfg.MessageQueue, func(hctx context.Context, body []byte) error {
		task, err := DecodeMessageTask(body)
		if err != nil {
			// 无法解析的条目重投也不会成功，记录后丢弃
			logger.Error("消息条目解析失败", zap.Error(err))
			return nil
		}
		return handler(hctx, task)
	})
}

// ConsumeLogins 消费登录队列，阻塞直到ctx取消
func (c *Client) ConsumeLogins(ctx context.Context, handler func(context.Context, *LoginTask) error) error {
	return c.consume(ctx, c.cfg.LoginQueue, func(hctx context.Context, body []byte) error {
		task, err := DecodeLoginTask(body)
		if err != nil {
			logger.Error("登录条目解析失败", zap.Error(err))
			return nil
		}
		return handler(hctx, task)
	})
}

// consume 单队列消费循环
// 处理完成后才ack，处理中崩溃由broker按至少一次语义重投
// 信道断开后按固定间隔重连，直到ctx取消
func (c *Client) consume(ctx context.Context, queue string, handle func(context.Context, []byte) error) error {
	delay := c.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}

	for {
		if err := c.consumeOnce(ctx, queue, handle); err != nil {
			logger.Error("消费中断，准备重连",
				zap.String("queue", queue),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// consumeOnce 打开独立信道消费一轮，信道关闭时返回
func (c *Client) consumeOnce(ctx context.Context, queue string, handle func(context.Context, []byte) error) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		c.mu.Lock()
		err := c.reconnect()
		conn = c.conn
		c.mu.Unlock()
		if err != nil {
			return err
		}
	}

	// 消费者独占信道，避免与发布信道相互干扰
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("打开消费信道失败: %w", err)
	}
	defer ch.Close()

	// 单条预取：处理完一条再取下一条
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	deliveries, err := ch.Consume(
		queue, // 队列名称
		"",    // consumer tag
		false, // auto-ack 关闭，处理完成后手动ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("订阅队列 %s 失败: %w", queue, err)
	}

	logger.Info("开始消费队列", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("队列 %s 的投递通道已关闭", queue)
			}
			if err := handle(ctx, d.Body); err != nil {
				logger.Error("条目处理失败，重回队列",
					zap.String("queue", queue),
					zap.Error(err),
				)
				_ = d.Nack(false, true)
				continue
			}
			if err := d.Ack(false); err != nil {
				logger.Error("ack失败", zap.String("queue", queue), zap.Error(err))
			}
		}
	}
}

// HealthCheck 检查连接状态
func (c *Client) HealthCheck() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return fmt.Errorf("rabbitmq连接已关闭")
	}
	return nil
}

// Close 关闭连接
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
