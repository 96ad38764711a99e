// Package connector mirrors the project memory log into a Discord channel and
// exposes a small /forge slash command.
package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/littup/forge/internal/controller"
	"go.uber.org/zap"
)

// messageSender는 채널 메시지 전송만 추린 discordgo.Session 인터페이스입니다.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config는 Connector 설정입니다.
type Config struct {
	Token     string // Discord bot token
	ChannelID string // Memory 이벤트를 게시할 채널
	QueueSize int    // 전송 대기 버퍼 크기 (0이면 기본값)
}

// Connector는 Discord 봇 세션과 Memory 이벤트 전송 큐를 관리합니다.
// controller.Notifier를 구현합니다.
type Connector struct {
	logger     *zap.Logger
	controller *controller.Controller
	config     Config
	session    *discordgo.Session
	sender     messageSender
	events     chan controller.Event
	wg         sync.WaitGroup
}

// NewConnector는 새로운 Connector를 생성합니다.
func NewConnector(logger *zap.Logger, ctrl *controller.Controller, config Config) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}
	return &Connector{
		logger:     logger.Named("connector"),
		controller: ctrl,
		config:     config,
		events:     make(chan controller.Event, config.QueueSize),
	}
}

// Notify implements controller.Notifier.
// 큐가 가득 차면 이벤트를 버리고 경고만 남깁니다.
func (c *Connector) Notify(_ context.Context, event controller.Event) {
	select {
	case c.events <- event:
	default:
		c.logger.Warn("Memory event dropped (queue full)",
			zap.Int64("project_id", event.ProjectID),
			zap.String("kind", string(event.Kind)),
		)
	}
}

// Start는 Discord 봇을 시작하고 Discord API에 연결합니다.
// 컨텍스트가 취소될 때까지 블로킹한 뒤 세션을 닫습니다.
func (c *Connector) Start(ctx context.Context) error {
	c.logger.Info("Starting connector (Discord Bot)")

	if c.config.Token == "" {
		return fmt.Errorf("LITTUP_DISCORD_TOKEN environment variable not set")
	}

	dg, err := discordgo.New("Bot " + c.config.Token)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	c.session = dg
	c.sender = dg
	c.session.Identify.Intents = discordgo.IntentsGuilds

	c.session.AddHandler(c.readyHandler)
	c.session.AddHandler(c.interactionRouter)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	c.logger.Info("Bot is now running.", zap.String("channel_id", c.config.ChannelID))

	// Memory 이벤트 전송 goroutine 시작
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pump(ctx)
	}()

	// 컨텍스트가 취소될 때까지 대기
	<-ctx.Done()
	c.logger.Info("Connector shutting down")
	c.wg.Wait()
	return c.Stop(context.Background()) // 컨텍스트가 이미 완료되었으므로 새 컨텍스트로 Stop 호출
}

// Stop은 Discord 세션을 정상적으로 닫습니다.
func (c *Connector) Stop(ctx context.Context) error {
	c.logger.Info("Stopping connector")
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.logger.Error("Error closing discord session", zap.Error(err))
			return err
		}
	}
	c.logger.Info("Connector stopped")
	return nil
}

// pump는 큐에 쌓인 이벤트를 설정된 채널로 전송합니다.
func (c *Connector) pump(ctx context.Context) {
	c.logger.Info("Memory sync started")
	defer c.logger.Info("Memory sync stopped")

	for {
		select {
		case event := <-c.events:
			c.deliver(event)
		case <-ctx.Done():
			return
		}
	}
}

// deliver는 이벤트 하나를 전송합니다. 실패는 로그로만 남깁니다.
func (c *Connector) deliver(event controller.Event) {
	if c.sender == nil || c.config.ChannelID == "" {
		return
	}

	if _, err := c.sender.ChannelMessageSend(c.config.ChannelID, FormatEvent(event)); err != nil {
		c.logger.Error("Failed to send memory event to Discord",
			zap.Int64("project_id", event.ProjectID),
			zap.String("channel_id", c.config.ChannelID),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Memory event sent",
		zap.Int64("project_id", event.ProjectID),
		zap.String("kind", string(event.Kind)),
	)
}

var _ controller.Notifier = (*Connector)(nil)
