package connector

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/storage"
	"go.uber.org/zap"
)

// commandDefinitions는 등록할 슬래시 명령어입니다.
func commandDefinitions() []*discordgo.ApplicationCommand {
	projectOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        optProject,
		Description: "프로젝트 ID",
		Required:    true,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdForge,
			Description: "LittUp 프로젝트 조회 및 팀 채팅",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdProjects, Description: "프로젝트 목록을 봅니다."},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdHistory, Description: "최근 스냅샷을 봅니다.", Options: []*discordgo.ApplicationCommandOption{projectOption}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdChat, Description: "팀에게 브리프를 보냅니다.", Options: []*discordgo.ApplicationCommandOption{
					projectOption,
					{Type: discordgo.ApplicationCommandOptionString, Name: optMessage, Description: "Planner 브리프", Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdEvolve, Description: "피드백으로 프로젝트를 진화시킵니다.", Options: []*discordgo.ApplicationCommandOption{
					projectOption,
					{Type: discordgo.ApplicationCommandOptionString, Name: optFeedback, Description: "진화 피드백", Required: false},
				}},
			},
		},
	}
}

// readyHandler는 봇이 Discord에 성공적으로 연결되었을 때 호출됩니다.
// 여기서 전역 애플리케이션 명령어를 등록합니다.
func (c *Connector) readyHandler(_ *discordgo.Session, r *discordgo.Ready) {
	c.logger.Info("Bot is ready! Registering commands...", zap.String("username", r.User.Username))

	_, err := c.session.ApplicationCommandBulkOverwrite(c.session.State.User.ID, "", commandDefinitions())
	if err != nil {
		c.logger.Error("Could not register commands", zap.Error(err))
	} else {
		c.logger.Info("Successfully registered commands.")
	}
}

// interactionRouter는 Discord 상호작용을 적절한 핸들러로 라우팅합니다.
func (c *Connector) interactionRouter(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != cmdForge || len(data.Options) == 0 {
		return
	}

	ctx := context.Background()
	sub := data.Options[0]
	options := optionMap(sub.Options)

	var (
		content string
		err     error
	)
	switch sub.Name {
	case subCmdProjects:
		content, err = c.showProjects(ctx)
	case subCmdHistory:
		content, err = c.showHistory(ctx, options[optProject].IntValue())
	case subCmdChat:
		content, err = c.sendChat(ctx, options[optProject].IntValue(), options[optMessage].StringValue())
	case subCmdEvolve:
		feedback := ""
		if opt, ok := options[optFeedback]; ok {
			feedback = opt.StringValue()
		}
		content, err = c.evolve(ctx, options[optProject].IntValue(), feedback)
	default:
		return
	}

	if err != nil {
		c.logger.Error("Slash command failed", zap.String("subcommand", sub.Name), zap.Error(err))
		c.respondEphemeral(i, describeError(err))
		return
	}
	c.respond(i, content)
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

func (c *Connector) showProjects(ctx context.Context) (string, error) {
	projects, err := c.controller.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	return formatProjectList(projects), nil
}

func (c *Connector) showHistory(ctx context.Context, projectID int64) (string, error) {
	project, err := c.controller.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	snapshots, err := c.controller.ListSnapshots(ctx, projectID, controller.HistoryWindow)
	if err != nil {
		return "", err
	}
	return formatHistory(project, snapshots), nil
}

func (c *Connector) sendChat(ctx context.Context, projectID int64, brief string) (string, error) {
	messages, err := c.controller.Chat(ctx, projectID, brief)
	if err != nil {
		return "", err
	}
	return formatChat(messages), nil
}

func (c *Connector) evolve(ctx context.Context, projectID int64, feedback string) (string, error) {
	reply, err := c.controller.Evolve(ctx, projectID, controller.FeedbackOrDefault(feedback))
	if err != nil {
		return "", err
	}
	return truncate(reply, maxMessageLength), nil
}

// describeError는 사용자에게 보여줄 오류 문구를 만듭니다.
func describeError(err error) string {
	switch {
	case errors.Is(err, storage.ErrProjectNotFound):
		return "오류: 프로젝트를 찾을 수 없어요."
	case errors.Is(err, controller.ErrInvalidInput):
		return "오류: 입력 값을 확인해주세요."
	default:
		return fmt.Sprintf("오류: 요청을 처리하지 못했어요. 에러: %v", err)
	}
}

func (c *Connector) respond(i *discordgo.InteractionCreate, content string) {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Description: content,
				Color:       colorInfo,
			}},
		},
	})
	if err != nil {
		c.logger.Error("Failed to send interaction response", zap.Error(err))
	}
}

// respondEphemeral은 사용자에게만 보이는 임시 메시지를 전송합니다.
func (c *Connector) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral}})
	if err != nil {
		c.logger.Error("Failed to send ephemeral message", zap.Error(err))
	}
}
