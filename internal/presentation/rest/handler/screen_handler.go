package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"gifticon-wallet/internal/application/gifticon_list"
	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/domain/listing"
)

// ScreenHandler 一覧画面ハンドラー
type ScreenHandler struct {
	registry *screen.Registry
}

// NewScreenHandler 新しいScreenHandlerを作成
func NewScreenHandler(registry *screen.Registry) *ScreenHandler {
	return &ScreenHandler{
		registry: registry,
	}
}

// requestContext 接続が切れてもギフティコンAPIの呼び出しと状態の更新は最後まで行う
func requestContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func screenResponse(s *screen.Screen) ScreenResponse {
	return ScreenResponse{
		ScreenID:  s.ID,
		MountedAt: s.MountedAt.Format(time.RFC3339),
		State:     s.Controller.View(),
	}
}

// MountScreen 画面マウントハンドラー
// @Summary 一覧画面をマウント
// @Description 一覧画面を作成し、先頭ページを読み込みます。読み込みの失敗は状態のerrorに入ります
// @Tags screens
// @Accept json
// @Produce json
// @Param request body MountScreenRequest false "画面マウントリクエスト"
// @Success 201 {object} ScreenResponse "マウント成功"
// @Failure 400 {object} ErrorResponse "不正なタブ"
// @Router /screens [post]
func (h *ScreenHandler) MountScreen(c echo.Context) error {
	var reqBody MountScreenRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&reqBody); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	var category listing.Category
	if reqBody.Category != "" {
		parsed, err := listing.NewCategory(reqBody.Category)
		if err != nil {
			return err
		}
		category = parsed
	}

	s, err := h.registry.Mount(requestContext(c), category)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, screenResponse(s))
}

// GetScreen 画面取得ハンドラー
// @Summary 画面の状態を取得
// @Description 画面の現在の状態を取得します
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Success 200 {object} ScreenResponse "取得成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Router /screens/{id} [get]
func (h *ScreenHandler) GetScreen(c echo.Context) error {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screenResponse(s))
}

// UnmountScreen 画面破棄ハンドラー
// @Summary 画面を破棄
// @Description 画面を破棄し、購読中のWebSocketを閉じます
// @Tags screens
// @Param id path string true "画面ID"
// @Success 204 "破棄成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Router /screens/{id} [delete]
func (h *ScreenHandler) UnmountScreen(c echo.Context) error {
	if err := h.registry.Unmount(requestContext(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh 引っ張って更新ハンドラー
// @Summary 一覧を更新
// @Description 先頭ページから読み直します
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Success 200 {object} ScreenResponse "更新成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Failure 502 {object} ErrorResponse "ギフティコンAPIのエラー"
// @Failure 503 {object} ErrorResponse "ギフティコンAPIに接続できない"
// @Router /screens/{id}/refresh [post]
func (h *ScreenHandler) Refresh(c echo.Context) error {
	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.Refresh(ctx)
	})
}

// LoadMore 次ページ読み込みハンドラー
// @Summary 次のページを読み込む
// @Description 続きがあり、読み込み中でない場合だけ次のページを追加します
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Success 200 {object} ScreenResponse "読み込み成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Failure 502 {object} ErrorResponse "ギフティコンAPIのエラー"
// @Failure 503 {object} ErrorResponse "ギフティコンAPIに接続できない"
// @Router /screens/{id}/load-more [post]
func (h *ScreenHandler) LoadMore(c echo.Context) error {
	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.LoadMore(ctx)
	})
}

// Retry 再試行ハンドラー
// @Summary 読み込みを再試行
// @Description エラー後に先頭ページから読み直します
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Success 200 {object} ScreenResponse "再試行成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Failure 502 {object} ErrorResponse "ギフティコンAPIのエラー"
// @Failure 503 {object} ErrorResponse "ギフティコンAPIに接続できない"
// @Router /screens/{id}/retry [post]
func (h *ScreenHandler) Retry(c echo.Context) error {
	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.Retry(ctx)
	})
}

// Focus 再表示ハンドラー
// @Summary 画面の再表示
// @Description 画面が再表示されたときに先頭ページから読み直します
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Success 200 {object} ScreenResponse "読み込み成功"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Failure 502 {object} ErrorResponse "ギフティコンAPIのエラー"
// @Failure 503 {object} ErrorResponse "ギフティコンAPIに接続できない"
// @Router /screens/{id}/focus [post]
func (h *ScreenHandler) Focus(c echo.Context) error {
	id := c.Param("id")
	if err := h.registry.Focus(requestContext(c), id); err != nil {
		return err
	}
	return h.respond(c, id)
}

// ChangeCategory タブ切り替えハンドラー
// @Summary タブを切り替える
// @Description タブを切り替えて先頭ページを読み込みます。フィルタはALLに戻ります
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "画面ID"
// @Param request body ChangeCategoryRequest true "タブ切り替えリクエスト"
// @Success 200 {object} ScreenResponse "切り替え成功"
// @Failure 400 {object} ErrorResponse "不正なタブ"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Router /screens/{id}/category [put]
func (h *ScreenHandler) ChangeCategory(c echo.Context) error {
	var reqBody ChangeCategoryRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	category, err := listing.NewCategory(reqBody.Category)
	if err != nil {
		return err
	}

	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.ChangeCategory(ctx, category)
	})
}

// ChangeFilter 種別フィルタ切り替えハンドラー
// @Summary 種別フィルタを切り替える
// @Description 種別フィルタを切り替えて先頭ページを読み込みます
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "画面ID"
// @Param request body ChangeFilterRequest true "種別フィルタ切り替えリクエスト"
// @Success 200 {object} ScreenResponse "切り替え成功"
// @Failure 400 {object} ErrorResponse "不正なフィルタ"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Router /screens/{id}/filter [put]
func (h *ScreenHandler) ChangeFilter(c echo.Context) error {
	var reqBody ChangeFilterRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	filter, err := listing.NewFilter(reqBody.Filter)
	if err != nil {
		return err
	}

	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.ChangeFilter(ctx, filter)
	})
}

// ChangeSort 並び順切り替えハンドラー
// @Summary 並び順を切り替える
// @Description 現在のタブの並び順を切り替えて先頭ページを読み込みます。使用済みタブでは変更できません
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "画面ID"
// @Param request body ChangeSortRequest true "並び順切り替えリクエスト"
// @Success 200 {object} ScreenResponse "切り替え成功"
// @Failure 400 {object} ErrorResponse "不正な並び順"
// @Failure 404 {object} ErrorResponse "画面が見つからない"
// @Router /screens/{id}/sort [put]
func (h *ScreenHandler) ChangeSort(c echo.Context) error {
	var reqBody ChangeSortRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	key, err := listing.NewSortKey(reqBody.Sort)
	if err != nil {
		return err
	}

	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.ChangeSort(ctx, key)
	})
}

// MarkUsed 使用完了ハンドラー
// @Summary 商品型ギフティコンを使用完了にする
// @Description 使用完了にして一覧から取り除きます
// @Tags screens
// @Produce json
// @Param id path string true "画面ID"
// @Param gifticonId path int true "ギフティコンID"
// @Success 200 {object} ScreenResponse "使用完了"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "画面・ギフティコンが見つからない"
// @Failure 409 {object} ErrorResponse "すでに使用済み"
// @Failure 422 {object} ErrorResponse "金額型のギフティコン"
// @Router /screens/{id}/gifticons/{gifticonId}/mark-used [post]
func (h *ScreenHandler) MarkUsed(c echo.Context) error {
	gifticonID, err := gifticonIDParam(c)
	if err != nil {
		return err
	}

	return h.run(c, func(ctx context.Context, ctrl *gifticon_list.ListController) error {
		return ctrl.MarkProductUsed(ctx, gifticonID)
	})
}

// UseAmount 金額使用ハンドラー
// @Summary 金額型ギフティコンの金額を使用する
// @Description 残高から金額を使用します。残高をすべて使うと一覧から取り除きます
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "画面ID"
// @Param gifticonId path int true "ギフティコンID"
// @Param request body UseAmountRequest true "金額使用リクエスト"
// @Success 200 {object} UseAmountResponse "使用成功"
// @Failure 400 {object} ErrorResponse "不正な金額"
// @Failure 404 {object} ErrorResponse "画面・ギフティコンが見つからない"
// @Failure 422 {object} ErrorResponse "残高超過"
// @Router /screens/{id}/gifticons/{gifticonId}/use-amount [post]
func (h *ScreenHandler) UseAmount(c echo.Context) error {
	gifticonID, err := gifticonIDParam(c)
	if err != nil {
		return err
	}
	var reqBody UseAmountRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return err
	}
	result, err := s.Controller.UseAmount(requestContext(c), gifticonID, string(reqBody.Amount))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UseAmountResponse{
		Result: *result,
		State:  s.Controller.View(),
	})
}

// run 画面のコントローラーで操作を実行し、更新後の状態を返す
func (h *ScreenHandler) run(c echo.Context, op func(context.Context, *gifticon_list.ListController) error) error {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return err
	}
	if err := op(requestContext(c), s.Controller); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screenResponse(s))
}

func (h *ScreenHandler) respond(c echo.Context, id string) error {
	s, err := h.registry.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screenResponse(s))
}

func gifticonIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("gifticonId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid gifticonId")
	}
	return id, nil
}
