package controller

import (
	"strconv"

	"coaching_backend/internal/service"
	"coaching_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
	ResultService     *service.ResultService
	AuthService       *service.AuthService
}

func NewAssessmentController(assessmentService *service.AssessmentService, resultService *service.ResultService, authService *service.AuthService) *AssessmentController {
	return &AssessmentController{
		AssessmentService: assessmentService,
		ResultService:     resultService,
		AuthService:       authService,
	}
}

func parsePage(ctx *gin.Context) (int, int) {
	page := 1
	limit := 20
	if p := ctx.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := ctx.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return page, limit
}

// @Summary 创建测评
// @Tags 测评管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assessment body service.CreateAssessmentRequest true "测评信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/assessments [post]
func (c *AssessmentController) Create(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assessment, err := c.AssessmentService.CreateAssessment(user, &req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, assessment)
}

// @Summary 测评详情（含题目）
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/{id} [get]
func (c *AssessmentController) Get(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	assessment, questions, err := c.AssessmentService.GetAssessment(uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"assessment": assessment, "questions": questions})
}

// @Summary 教师测评列表
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments [get]
func (c *AssessmentController) ListForTeacher(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := parsePage(ctx)
	items, total, err := c.AssessmentService.ListForTeacher(user.ID, page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": total})
}

// @Summary 学生可见的测评列表
// @Tags 测评
// @Security BearerAuth
// @Produce json
// @Param batchId query int true "班级ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/assessments [get]
func (c *AssessmentController) ListForStudent(ctx *gin.Context) {
	batchID, err := strconv.Atoi(ctx.Query("batchId"))
	if err != nil || batchID <= 0 {
		util.BadRequest(ctx, "invalid batchId")
		return
	}

	page, limit := parsePage(ctx)
	items, total, err := c.AssessmentService.ListForStudent(uint(batchID), page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": total})
}

type addQuestionsRequest struct {
	Questions []service.QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// @Summary 追加题目
// @Tags 测评管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测评ID"
// @Param questions body addQuestionsRequest true "题目列表"
// @Success 201 {object} util.Response
// @Router /api/teacher/assessments/{id}/questions [post]
func (c *AssessmentController) AddQuestions(ctx *gin.Context) {
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

	var req addQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	questions, err := c.AssessmentService.AddQuestions(uint(id), user, req.Questions)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, questions)
}

// @Summary 删除题目
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Param qid path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/{id}/questions/{qid} [delete]
func (c *AssessmentController) DeleteQuestion(ctx *gin.Context) {
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
	qid, err := strconv.Atoi(ctx.Param("qid"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.AssessmentService.DeleteQuestion(uint(id), uint(qid), user); err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": qid})
}

// @Summary 发布测评
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/{id}/publish [post]
func (c *AssessmentController) Publish(ctx *gin.Context) {
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

	assessment, err := c.AssessmentService.Publish(uint(id), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, assessment)
}

// @Summary 关闭测评
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/{id}/close [post]
func (c *AssessmentController) Close(ctx *gin.Context) {
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

	assessment, err := c.AssessmentService.Close(uint(id), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, assessment)
}

// @Summary 测评榜单
// @Tags 测评管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/{id}/attempts [get]
func (c *AssessmentController) Leaderboard(ctx *gin.Context) {
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

	entries, err := c.ResultService.Leaderboard(ctx.Request.Context(), uint(id), user)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": entries, "total": len(entries)})
}
