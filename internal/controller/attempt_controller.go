package controller

import (
	"strconv"

	"coaching_backend/internal/service"
	"coaching_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
	ResultService  *service.ResultService
	AuthService    *service.AuthService
}

func NewAttemptController(attemptService *service.AttemptService, resultService *service.ResultService, authService *service.AuthService) *AttemptController {
	return &AttemptController{
		AttemptService: attemptService,
		ResultService:  resultService,
		AuthService:    authService,
	}
}

// @Summary 开始或继续作答
// @Description 已有未提交作答时幂等续答，否则新建一次作答
// @Tags 作答
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/assessments/{id}/attempts/start [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	result, err := c.AttemptService.StartOrResume(uint(id), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 保存单题作答
// @Description 同一题重复保存时整条覆盖
// @Tags 作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Param questionId path int true "题目ID"
// @Param answer body service.SaveAnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/answers/{questionId} [put]
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID := ctx.Param("id")
	questionID, err := strconv.Atoi(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req service.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AttemptService.SaveAnswer(attemptID, uint(questionID), user, &req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// @Summary 交卷
// @Description 判分并冻结作答，重复交卷返回冲突
// @Tags 作答
// @Security BearerAuth
// @Produce json
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AttemptService.Submit(ctx.Param("id"), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 成绩回看
// @Tags 作答
// @Security BearerAuth
// @Produce json
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.ResultService.GetAttemptResult(ctx.Param("id"), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
