package domain

import "errors"

var (
	// ErrFeed возвращается когда источник цен или событий недоступен
	// либо вернул некорректный ответ. Транзиентная ошибка: стратегия
	// пропускает цикл, но не останавливается.
	ErrFeed = errors.New("feed unavailable")

	// ErrAdvisory возвращается при ошибке внешнего советника.
	// Стратегия переключается на локальный индикатор.
	ErrAdvisory = errors.New("advisory unavailable")

	// ErrExecution возвращается когда сеть отклонила или не подтвердила
	// транзакцию. Фатальна для конкретного intent, но не для стратегии.
	ErrExecution = errors.New("execution failed")

	// ErrInsufficientBalance возвращается при недостаточном балансе
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSlippage возвращается когда цена исполнения отклонилась от
	// целевой сильнее допустимого порога
	ErrSlippage = errors.New("slippage exceeds threshold")

	// ErrStorage возвращается при ошибке записи или чтения журнала сделок
	ErrStorage = errors.New("storage error")

	// ErrUnrecordedTrade возвращается когда транзакция в сети прошла,
	// но запись в журнал не удалась даже после повтора. Сделка реальна,
	// но не учтена — учет прибыли поврежден до ручного вмешательства.
	ErrUnrecordedTrade = errors.New("trade executed but not recorded")

	// ErrUnknownStrategy возвращается при неизвестной стратегии
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrUnknownParameter возвращается при неизвестном параметре стратегии
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrInvalidParameter возвращается при некорректном значении параметра
	ErrInvalidParameter = errors.New("invalid parameter value")

	// ErrPositionOpen возвращается при попытке открыть вторую позицию
	// по той же паре (mint, strategy) пока первая не закрыта
	ErrPositionOpen = errors.New("position already open")

	// ErrNotActive возвращается когда команда адресована незапущенной стратегии
	ErrNotActive = errors.New("strategy not active")
)
